package commands

import (
	"fmt"

	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// migrateCmd creates or upgrades the schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *gorm.DB) error {
			if err := (&config.DB{Gorm: db}).Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
