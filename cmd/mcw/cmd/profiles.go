package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
	"github.com/msto63/mCW/internal/jacquard/service"
)

var (
	profilesDescription string
	profilesOutput      string
	profilesFormat      string
	profilesForce       bool
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Verwaltet Maschinenprofile",
	Long: `Verwaltet Maschinenprofile.

Ein Profil bündelt das Annotations-Wörterbuch und die Snippets
einer Maschine oder Steuerung.`,
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Listet alle Profile",
	RunE:  runProfilesList,
}

var profilesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Legt ein neues Profil an",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesCreate,
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Löscht ein Profil",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesDelete,
}

var profilesExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Exportiert ein Profil als JSON oder YAML",
	Long: `Exportiert ein Profil mit Wörterbuch und Snippets.

Das Format ergibt sich aus --format oder der Endung der Zieldatei.

Beispiele:
  mcw profiles export "Fräse DMG" --output fraese.yaml
  mcw profiles export Standard --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runProfilesExport,
}

var profilesImportCmd = &cobra.Command{
	Use:   "import <datei>",
	Short: "Importiert ein Profil aus JSON oder YAML",
	Long: `Importiert ein Profil mit Wörterbuch und Snippets.

Das Format ergibt sich aus --format oder der Dateiendung. Ein
bestehendes Profil wird nur mit --force überschrieben.

Beispiele:
  mcw profiles import fraese.yaml
  mcw profiles import --force standard.json`,
	Args: cobra.ExactArgs(1),
	RunE: runProfilesImport,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesCreateCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)
	profilesCmd.AddCommand(profilesExportCmd)
	profilesCmd.AddCommand(profilesImportCmd)

	profilesCreateCmd.Flags().StringVarP(&profilesDescription, "description", "d", "", "Beschreibung")
	profilesExportCmd.Flags().StringVarP(&profilesOutput, "output", "o", "", "Zieldatei (default: stdout)")
	profilesExportCmd.Flags().StringVar(&profilesFormat, "format", "", "json oder yaml (default: aus Dateiendung)")
	profilesImportCmd.Flags().StringVar(&profilesFormat, "format", "", "json oder yaml (default: aus Dateiendung)")
	profilesImportCmd.Flags().BoolVar(&profilesForce, "force", false, "Bestehendes Profil überschreiben")
}

// profileDocument is the file form of an exported profile
type profileDocument struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Entries     []entryDocument   `json:"entries" yaml:"entries"`
	Snippets    map[string]string `json:"snippets,omitempty" yaml:"snippets,omitempty"`
}

// entryDocument mirrors store.DictionaryEntry with YAML tags
type entryDocument struct {
	Letter       string `json:"letter" yaml:"letter"`
	ValueOrRange string `json:"value_or_range" yaml:"value_or_range"`
	Description  string `json:"description" yaml:"description"`
	ModalGroup   string `json:"modal_group,omitempty" yaml:"modal_group,omitempty"`
}

func runProfilesList(cmd *cobra.Command, args []string) error {
	quietLogging()

	svc, err := openConfiguredService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profiles, err := svc.ListProfiles(ctx)
	if err != nil {
		return err
	}

	if len(profiles) == 0 {
		fmt.Println("Keine Profile vorhanden.")
		return nil
	}

	fmt.Printf("%-24s %-40s %s\n", "NAME", "BESCHREIBUNG", "GEÄNDERT")
	fmt.Println(strings.Repeat("-", 82))
	for _, p := range profiles {
		fmt.Printf("%-24s %-40s %s\n",
			truncateString(p.Name, 24),
			truncateString(p.Description, 40),
			p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d Profil(e)\n", len(profiles))
	return nil
}

func runProfilesCreate(cmd *cobra.Command, args []string) error {
	quietLogging()

	svc, err := openConfiguredService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := svc.CreateProfile(ctx, args[0], profilesDescription)
	if err != nil {
		if mcwerror.HasCode(err, mcwerror.CodeProfileExists) {
			return fmt.Errorf("Profil %q existiert bereits", args[0])
		}
		return err
	}

	fmt.Printf("Profil %q angelegt (ID %s)\n", p.Name, p.ID)
	return nil
}

func runProfilesDelete(cmd *cobra.Command, args []string) error {
	quietLogging()

	svc, err := openConfiguredService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := svc.DeleteProfile(ctx, args[0]); err != nil {
		if mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
			return fmt.Errorf("Profil %q nicht gefunden", args[0])
		}
		return err
	}

	fmt.Printf("Profil %q gelöscht\n", args[0])
	return nil
}

func runProfilesExport(cmd *cobra.Command, args []string) error {
	quietLogging()

	svc, err := openConfiguredService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := args[0]
	p, err := svc.GetProfile(ctx, name)
	if err != nil {
		if mcwerror.HasCode(err, mcwerror.CodeProfileNotFound) {
			return fmt.Errorf("Profil %q nicht gefunden", name)
		}
		return err
	}

	entries, err := svc.GetEntries(ctx, name)
	if err != nil {
		return err
	}
	snippets, err := svc.GetSnippets(ctx, name)
	if err != nil {
		return err
	}

	doc := profileDocument{
		Name:        p.Name,
		Description: p.Description,
		Entries:     make([]entryDocument, 0, len(entries)),
		Snippets:    snippets,
	}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, entryDocument{
			Letter:       e.Letter,
			ValueOrRange: e.ValueOrRange,
			Description:  e.Description,
			ModalGroup:   e.ModalGroup,
		})
	}

	format := profilesFormat
	if format == "" {
		format = formatFromPath(profilesOutput)
	}
	data, err := encodeProfile(&doc, format)
	if err != nil {
		return err
	}

	if profilesOutput == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(profilesOutput, data, 0o644); err != nil {
		return fmt.Errorf("Datei nicht schreibbar: %v", err)
	}

	fmt.Printf("Profil %q nach %s exportiert (%d Einträge, %d Snippets)\n",
		name, profilesOutput, len(doc.Entries), len(doc.Snippets))
	return nil
}

func runProfilesImport(cmd *cobra.Command, args []string) error {
	quietLogging()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("Datei nicht lesbar: %v", err)
	}

	format := profilesFormat
	if format == "" {
		format = formatFromPath(args[0])
	}
	doc, err := decodeProfile(data, format)
	if err != nil {
		return err
	}
	if doc.Name == "" {
		return fmt.Errorf("Profilname fehlt in %s", args[0])
	}

	svc, err := openConfiguredService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = svc.CreateProfile(ctx, doc.Name, doc.Description)
	if err != nil {
		if !mcwerror.HasCode(err, mcwerror.CodeProfileExists) {
			return err
		}
		if !profilesForce {
			return fmt.Errorf("Profil %q existiert bereits (--force zum Überschreiben)", doc.Name)
		}
		if _, err := svc.UpdateProfile(ctx, doc.Name, "", doc.Description); err != nil {
			return err
		}
	}

	entries := make([]service.DictionaryEntry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		entries = append(entries, service.DictionaryEntry{
			Letter:       e.Letter,
			ValueOrRange: e.ValueOrRange,
			Description:  e.Description,
			ModalGroup:   e.ModalGroup,
		})
	}
	if err := svc.PutEntries(ctx, doc.Name, entries); err != nil {
		if mcwerror.HasCode(err, mcwerror.CodeDictionaryParse) {
			return fmt.Errorf("Wörterbuch fehlerhaft: %v", err)
		}
		return err
	}

	if len(doc.Snippets) > 0 {
		if err := svc.PutSnippets(ctx, doc.Name, doc.Snippets); err != nil {
			return err
		}
	}

	fmt.Printf("Profil %q importiert (%d Einträge, %d Snippets)\n",
		doc.Name, len(entries), len(doc.Snippets))
	return nil
}

func encodeProfile(doc *profileDocument, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		return yaml.Marshal(doc)
	case "json", "":
		return json.MarshalIndent(doc, "", "  ")
	default:
		return nil, fmt.Errorf("unbekanntes Format: %s (json oder yaml)", format)
	}
}

func decodeProfile(data []byte, format string) (*profileDocument, error) {
	var doc profileDocument
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("YAML nicht lesbar: %v", err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("JSON nicht lesbar: %v", err)
		}
	default:
		return nil, fmt.Errorf("unbekanntes Format: %s (json oder yaml)", format)
	}
	return &doc, nil
}

// formatFromPath derives the export format from a file extension
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
