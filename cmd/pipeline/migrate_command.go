package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sentiment-lab/internal/storage/migrations"
	"sentiment-lab/internal/storage/postgres"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var postgresDSN, clickhouseDSN string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the text_records and daily_bars source tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("postgres-dsn") {
				cfg.Storage.PostgresDSN = postgresDSN
			}
			if cmd.Flags().Changed("clickhouse-dsn") {
				cfg.Storage.ClickhouseDSN = clickhouseDSN
			}
			if cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickhouseDSN == "" {
				return errors.New("migrate: set storage.postgres_dsn and/or storage.clickhouse_dsn")
			}

			out := cmd.OutOrStdout()
			if dsn := cfg.Storage.PostgresDSN; dsn != "" {
				pool, err := postgres.NewPool(cmd.Context(), dsn)
				if err != nil {
					return fmt.Errorf("connect postgres: %w", err)
				}
				n, err := migrations.RunPostgresMigrations(cmd.Context(), pool)
				pool.Close()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "postgres: %d migration(s) applied\n", n)
			}

			if dsn := cfg.Storage.ClickhouseDSN; dsn != "" {
				conn, err := migrations.RunClickhouseMigrations(cmd.Context(), dsn)
				if err != nil {
					return err
				}
				if err := conn.Close(); err != nil {
					return fmt.Errorf("close clickhouse: %w", err)
				}
				fmt.Fprintln(out, "clickhouse: schema up to date")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "PostgreSQL DSN")
	cmd.Flags().StringVar(&clickhouseDSN, "clickhouse-dsn", "", "ClickHouse DSN")
	return cmd
}
