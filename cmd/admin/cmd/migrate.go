package cmd

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/talentflow-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table owned by the API",
	RunE: func(_ *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		if err := database.Migrate(e.db); err != nil {
			return err
		}

		e.logger.Info().Msg("database migrated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
