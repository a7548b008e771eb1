package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/facemask/internal/config"
	"github.com/andresmejia3/facemask/internal/store"
	"github.com/spf13/cobra"
)

var (
	// DB is the audit store, opened only by commands that need it
	DB *store.Store
	// configPath points at an optional YAML config file
	configPath string
	// auditDB overrides the audit connection string from config
	auditDB string
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "facemask",
	Short:   "Blur faces in images using a remote face detector",
	Version: Version, // This enables the --version flag
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			DB.Close()
		}
	},
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&auditDB, "audit-db", "", "PostgreSQL connection string for the request audit trail (env: FACEMASK_AUDIT_DB)")
}

// loadConfig reads the process configuration once and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if auditDB != "" {
		cfg.AuditDB = auditDB
	}
	return cfg, nil
}

// openStore connects the audit store, failing when none is configured.
func openStore(ctx context.Context, cfg *config.Config) error {
	if cfg.AuditDB == "" {
		return fmt.Errorf("no audit database configured (use --audit-db or FACEMASK_AUDIT_DB)")
	}
	var err error
	DB, err = store.New(ctx, cfg.AuditDB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}
