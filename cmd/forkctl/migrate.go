package main

import (
	"errors"
	"fmt"
	"strconv"

	"fork-your-story/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	migrator := func() (*database.Migrator, error) {
		if a.cfg.DatabaseURL == "" {
			return nil, errors.New("database_url is not configured (set DATABASE_URL or database_url in the config file)")
		}
		return database.NewMigratorDSN(a.cfg.DatabaseURL, a.zl), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator()
				if err != nil {
					return err
				}
				if err := m.Up(); err != nil {
					return err
				}
				a.log.Info().Msg("Migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator()
				if err != nil {
					return err
				}
				if err := m.Down(); err != nil {
					return err
				}
				a.log.Info().Msg("Last migration rolled back")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := migrator()
				if err != nil {
					return err
				}
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				m, err := migrator()
				if err != nil {
					return err
				}
				if err := m.Force(version); err != nil {
					return err
				}
				a.log.Info().Int("version", version).Msg("Schema version forced")
				return nil
			},
		},
	)
	return cmd
}
