package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/mCW/internal/jacquard/server"
	"github.com/msto63/mCW/pkg/core/logging"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Startet den Jacquard-Annotationsdienst",
	Long: `Startet den Jacquard-Annotationsdienst.

Der Dienst stellt die Annotations-API bereit:
  REST       http://<host>:<port>/api/v1/annotate
  WebSocket  ws://<host>:<port>/ws/annotate
  Health     http://<host>:<port>/healthz

Eine zweite Instanz startet nicht, solange im Laufzeitverzeichnis
eine laufende Instanz registriert ist.

Beispiele:
  mcw serve
  mcw serve --port 9301`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port (default: aus Config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Jacquard.Port = servePort
	}

	if verbose {
		cfg.General.LogLevel = "debug"
	}
	logging.SetDefaultLevel(cfg.General.LogLevel)
	if cfg.General.LogFile != "" {
		logging.SetDefaultFile(cfg.General.LogFile)
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("meinCODEWERK")
	fmt.Println("============")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Printf("  [+] Jacquard (Annotation) auf http://%s\n", srv.Address())
	fmt.Printf("  [+] WebSocket auf ws://%s/ws/annotate\n", srv.Address())
	fmt.Println()
	fmt.Println("Drücke Ctrl+C zum Beenden")

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-sigCh:
		fmt.Println("\nStoppe Jacquard...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Jacquard.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Stop(ctx)
	}
}
