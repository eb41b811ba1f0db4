// Package main is the entry point for the directory server.
//
// The binary has three commands:
//
//	server [serve]               run the HTTP API (default)
//	server migrate               apply pending database migrations and exit
//	server promote <userId>      change an account's role (default admin)
//
// All actual logic lives in internal/. main only reads configuration,
// builds the collaborators and hands them over.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/altdirectory/internal/config"
	"github.com/sakif/altdirectory/internal/logging"
	"github.com/sakif/altdirectory/internal/model"
	sqliteRepo "github.com/sakif/altdirectory/internal/repository/sqlite"
	"github.com/sakif/altdirectory/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "server",
		Short:         "Directory of alternatives and tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFile, "path to the YAML config file (optional)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd, configPath)
			},
		},
		newPromoteCmd(&configPath),
	)
	return root
}

func newPromoteCmd(configPath *string) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "promote <userId>",
		Short: "Set the role of an account",
		Long:  "Set the role of an account, identified by its identity provider user id. The account must have signed in once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			account, err := service.NewAccountService(db, logger).Promote(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now %s\n", account.UserID, account.Name, account.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", model.RoleAdmin, "role to assign: user or admin")
	return cmd
}

func runMigrate(cmd *cobra.Command, configPath string) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	db, err := sqliteRepo.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.Migrate(cmd.Context())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s (%s)\n", r.Source.Path, r.Duration)
	}
	logger.Info("migrations applied", slog.Int("count", len(results)))
	return nil
}

// setup loads the configuration and builds the process logger.
func setup(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openDB creates the data directory if needed, opens the database and
// applies pending migrations.
func openDB(ctx context.Context, cfg *config.Config) (*sqliteRepo.DB, error) {
	if cfg.Database.Path != ":memory:" {
		// 0755 = owner can read/write/execute, others can read/execute.
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
