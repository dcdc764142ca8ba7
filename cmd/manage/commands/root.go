package commands

import (
	"fmt"
	"os"

	"github.com/anonto42/yatube/backend/pkg/config"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags
	dbDriver    string
	sqlitePath  string
	postgresURL string
)

// openDB connects to the configured database. Tests replace it.
var openDB = func() (*gorm.DB, func(), error) {
	cfg := config.Load()
	if dbDriver != "" {
		cfg.DBDriver = dbDriver
	}
	if sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}
	if postgresURL != "" {
		cfg.PostgresUrl = postgresURL
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return db.Gorm, db.CloseDB, nil
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "manage",
	Short: "Administrative tasks for Yatube",
	Long: `Administrative tasks for Yatube: schema migration and the content
that has no page of its own, such as groups.

The database is taken from the same environment (or .env file) the server
reads; the flags below override it.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "Database driver: postgres or sqlite (default from DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file (default from SQLITE_PATH)")
	rootCmd.PersistentFlags().StringVar(&postgresURL, "postgres", "", "PostgreSQL connection URL (default from POSTGRES_CONN_STR)")
}

// withDB runs fn against an open database and closes it afterwards
func withDB(fn func(db *gorm.DB) error) error {
	db, closeDB, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(db)
}
