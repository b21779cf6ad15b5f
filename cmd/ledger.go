/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/memberhub/apiserver/config"
	"github.com/memberhub/apiserver/internal/auth"
	"github.com/memberhub/apiserver/internal/server"
	"github.com/memberhub/apiserver/internal/services"
	"github.com/memberhub/apiserver/internal/storage"
	"github.com/spf13/cobra"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Ledger maintenance",
}

var exportSince string

var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload a ledger statement to object storage",
	Long: `Writes every ledger entry created at or after --since as JSON lines to
the configured object storage. Usage:

	memberhub ledger export --since 2026-01-01T00:00:00Z
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var since time.Time
		if exportSince != "" {
			parsed, err := time.Parse(time.RFC3339, exportSince)
			if err != nil {
				return fmt.Errorf("--since must be an RFC 3339 timestamp: %w", err)
			}
			since = parsed
		}

		cfg := config.LoadConfig()
		if cfg.Database.Driver == config.DriverMemory {
			return errors.New("ledger export needs a persistent DB_DRIVER")
		}
		log := newLogger(cfg)
		ctx := cmd.Context()

		repos, dbConn, err := server.OpenRepositories(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		objects, err := storage.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}

		result, err := services.NewExportService(repos.Ledger, objects, log).ExportLedger(ctx, auth.Admin{}, since)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)

	ledgerExportCmd.Flags().StringVar(&exportSince, "since", "", "only export entries created at or after this RFC 3339 time")
}
