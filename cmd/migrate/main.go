package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
	"github.com/drkhalidabdullah/islamwiki-sub001/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("islamwiki-migrate", cfg.Server.Environment, cfg.Server.LogLevel)

	var source string
	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the search event, suggestion and history tables",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&source, "path", cfg.Database.MigrationsPath, "migration source URL")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(&cfg.Database, func(c *postgres.Client) error {
				return c.Migrate(source)
			})
		},
	})

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(&cfg.Database, func(c *postgres.Client) error {
				return c.Rollback(source, steps)
			})
		},
	}
	downCmd.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	rootCmd.AddCommand(downCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Str("source", source).Msg("migration failed")
		os.Exit(1)
	}
}

func withClient(cfg *config.DatabaseConfig, fn func(*postgres.Client) error) error {
	client, err := postgres.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer client.Close()
	return fn(client)
}
