package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
	"github.com/msto63/mCW/internal/jacquard/service"
	"github.com/msto63/mCW/internal/jacquard/store"
	"github.com/msto63/mCW/pkg/core/config"
	"github.com/msto63/mCW/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mcw",
	Short: "meinCODEWERK - Lokale G-Code-Annotationsplattform",
	Long: `meinCODEWERK annotiert CNC-Programme (G-Code) mit verständlichen
Beschreibungen - lokal installierbar, für den Einzelarbeitsplatz.

Befehle:
  annotate - G-Code aus Datei oder stdin annotieren
  serve    - Jacquard-Annotationsdienst starten (HTTP/WebSocket)
  profiles - Maschinenprofile verwalten
  view     - Interaktive Annotationsansicht (TUI)
  status   - Registrierte Dienste anzeigen`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config-Datei (default: ./mcw.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Fehler: %s: %v\n", msg, err)
}

// loadConfig loads the configuration honoring the --config flag. A missing
// config file falls back to defaults, a broken one is an error.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		if mcwerror.HasCode(err, mcwerror.CodeConfigNotFound) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// openService builds an in-process annotation service from the configuration
func openService(cfg *config.Config) (*service.Service, error) {
	st, err := store.Open(cfg.Store.Type, cfg.Store.Path, cfg.Store.Backups)
	if err != nil {
		return nil, fmt.Errorf("Profilspeicher nicht verfügbar: %v", err)
	}

	svc, err := service.New(service.Config{
		DefaultProfile:   cfg.Engine.DefaultProfile,
		MaxDocumentBytes: int(cfg.Engine.MaxDocumentBytes),
		SessionTTL:       cfg.Jacquard.SessionTTL.Duration,
		EnableCache:      true,
		ResultCacheSize:  cfg.Jacquard.ResultCacheSize,
	}, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return svc, nil
}

// openConfiguredService is openService with the default configuration chain
func openConfiguredService() (*service.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openService(cfg)
}

// quietLogging keeps service logs away from command output
func quietLogging() {
	if verbose {
		logging.SetDefaultLevel("debug")
		return
	}
	logging.SetDefaultLevel("error")
}

// truncateString truncates a string to max length
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "~"
}
