package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/mCW/foundation/gcode"
	"github.com/msto63/mCW/internal/jacquard/handler"
	"github.com/msto63/mCW/internal/jacquard/service"
)

var (
	annotateProfile string
	annotateJSON    bool
)

var annotateCmd = &cobra.Command{
	Use:   "annotate [datei]",
	Short: "Annotiert G-Code aus Datei oder stdin",
	Long: `Annotiert ein CNC-Programm Zeile für Zeile.

Die Eingabe kommt aus einer Datei oder von stdin. Die Ausgabe ist
eine Texttabelle oder mit --json das Format der HTTP-API.

Beispiele:
  mcw annotate teil_047.nc
  mcw annotate --profile "Fräse DMG" teil_047.nc
  mcw annotate --json teil_047.nc > annotiert.json
  cat teil_047.nc | mcw annotate`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVarP(&annotateProfile, "profile", "p", "", "Maschinenprofil (default: aus Config)")
	annotateCmd.Flags().BoolVar(&annotateJSON, "json", false, "Ausgabe als JSON")
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	quietLogging()

	text, err := getInputText(args)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("kein G-Code: Datei angeben oder über stdin einlesen")
	}

	svc, err := openConfiguredService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := svc.AnnotateDocument(ctx, &service.AnnotateRequest{
		Profile: annotateProfile,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("Annotation fehlgeschlagen: %v", err)
	}

	if annotateJSON {
		return printAnnotationJSON(resp)
	}
	printAnnotationTable(resp)
	return nil
}

// printAnnotationJSON writes the annotation in the HTTP API response format
func printAnnotationJSON(resp *service.AnnotateResponse) error {
	out := handler.AnnotateResponse{
		Profile:     resp.Profile,
		Fingerprint: resp.Fingerprint,
		Cached:      resp.Cached,
		DurationMS:  resp.Duration.Milliseconds(),
		Lines:       handler.ToLines(resp.Lines),
		Total:       len(resp.Lines),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// printAnnotationTable writes the annotation as a text table
func printAnnotationTable(resp *service.AnnotateResponse) {
	fmt.Printf("G-Code-Annotation (Profil: %s)\n", resp.Profile)
	fmt.Println(strings.Repeat("=", 60))

	width := 8
	for _, la := range resp.Lines {
		if len(la.Line.Raw) > width {
			width = len(la.Line.Raw)
		}
	}
	if width > 40 {
		width = 40
	}

	carried := false
	for _, la := range resp.Lines {
		fmt.Printf("%4d  %-*s │ %s\n",
			la.Line.Number, width, truncateString(la.Line.Raw, width), formatNotes(la, &carried))
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Zeilen: %d, Dauer: %s\n", len(resp.Lines), resp.Duration.Round(time.Millisecond))
	if carried {
		fmt.Println("* Beschreibung aus modalem Kontext übernommen")
	}
}

// formatNotes joins the annotations of one line, marking modal carries
func formatNotes(la gcode.LineAnnotation, carried *bool) string {
	if len(la.Results) == 0 {
		if comment := la.Comment(); comment != "" {
			return "(" + comment + ")"
		}
		return ""
	}

	parts := make([]string, 0, len(la.Results))
	for _, res := range la.Results {
		note := res.Token.Raw + " " + res.Description
		if res.ModalCarry {
			note += "*"
			*carried = true
		}
		parts = append(parts, note)
	}
	return strings.Join(parts, " · ")
}

// getInputText reads G-code from stdin (when piped) or from the file argument
func getInputText(args []string) (string, error) {
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("Datei nicht lesbar: %v", err)
		}
		return string(data), nil
	}

	return "", nil
}
