// ============================================================================
// meinCODEWERK (mCW) - Lokale G-Code-Annotationsplattform
// ============================================================================
//
// Package:     cmd
// Description: CLI command for the mCW annotation viewer TUI
// Author:      Mike Stoffels with Claude
// Created:     2026-03-08
// License:     MIT
// ============================================================================

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msto63/mCW/internal/tui/annotview"
)

var (
	viewProfile string
	viewNoCarry bool
)

var viewCmd = &cobra.Command{
	Use:   "view [datei]",
	Short: "Startet die interaktive Annotationsansicht",
	Long: `Startet die interaktive Annotationsansicht (TUI).

Quellzeilen und Annotationen stehen nebeneinander; Profile lassen
sich im laufenden Betrieb durchschalten.

Tastenkürzel:
  ↑/↓ PgUp/PgDn  Blättern
  p / P          Profil vor / zurück
  c              Übernahme-Marker ein/aus
  o              Datei öffnen
  r              Neu laden
  g / G          Zum Anfang / Ende springen
  q / Ctrl+C     Beenden`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringVarP(&viewProfile, "profile", "p", "", "Maschinenprofil (default: aus Config)")
	viewCmd.Flags().BoolVar(&viewNoCarry, "no-carry", false, "Übernahme-Marker ausblenden")
}

func runView(cmd *cobra.Command, args []string) error {
	quietLogging()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	vcfg := annotview.Config{
		Profile:   cfg.TUI.Profile,
		ShowCarry: cfg.TUI.ShowCarry && !viewNoCarry,
	}
	if viewProfile != "" {
		vcfg.Profile = viewProfile
	}
	if len(args) > 0 {
		vcfg.Path = args[0]
	}

	return annotview.Run(svc, vcfg)
}
