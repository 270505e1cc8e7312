package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-overtime-admin/go-overtime-admin/internal/daemon"
)

func init() { //nolint: gochecknoinits
	initDBCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration directory")
	initDBCmd.Flags().BoolVar(&seedDemo, "seed", false, "Seed demo groups, users and overtime records")

	rootCmd.AddCommand(initDBCmd)
}

var (
	seedDemo bool

	initDBCmd = &cobra.Command{
		Use:   "initdb",
		Short: "Create or migrate the database tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := setupCLI()
			if err != nil {
				return err
			}

			if err := daemon.Migrate(db); err != nil {
				return err
			}

			log.Info().Msg("database tables created")

			if seedDemo {
				if err := daemon.SeedDemo(db); err != nil {
					return err
				}

				log.Info().Msg("demo data seeded")
			}

			return nil
		},
	}
)
