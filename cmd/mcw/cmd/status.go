package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/mCW/pkg/core/discovery"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Zeigt registrierte Dienste an",
	Long: `Zeigt die im Laufzeitverzeichnis registrierten Dienste an.

Geprüft werden Registrierung, Heartbeat-Alter und Erreichbarkeit
des Health-Endpunkts.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	quietLogging()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	registry := discovery.NewFileRegistry(filepath.Join(cfg.General.DataDir, "run"), 0)
	services, err := registry.List(ctx)
	if err != nil {
		return err
	}

	fmt.Println("meinCODEWERK Status")
	fmt.Println("===================")
	fmt.Println()

	if len(services) == 0 {
		fmt.Println("Keine Dienste registriert.")
		fmt.Println("Starte mit: mcw serve")
		return nil
	}

	fmt.Println("Registrierte Dienste:")
	fmt.Println("---------------------")

	for _, svc := range services {
		age := time.Since(svc.LastHeartbeat).Round(time.Second)
		icon := "[+]"
		note := fmt.Sprintf("Heartbeat vor %s", age)

		if svc.Status == discovery.ServiceStatusUnknown {
			icon = "[-]"
			note += " (veraltet)"
		} else if health := checkHealth(ctx, svc.BaseURL()); health != "" {
			note += ", " + health
		} else {
			icon = "[-]"
			note += ", nicht erreichbar"
		}

		fmt.Printf("  %s %-12s v%-8s %-21s PID %-6d %s\n",
			icon, svc.Name, svc.Version, svc.FullAddress(), svc.PID, note)
	}

	return nil
}

// checkHealth probes the health endpoint of a registered service
func checkHealth(ctx context.Context, baseURL string) string {
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/healthz", nil)
	if err != nil {
		return ""
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return "healthy"
	}
	return fmt.Sprintf("Status %d", resp.StatusCode)
}
