package config

import (
	"fmt"
	"log"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
type DB struct {
	Gorm *gorm.DB
}

// InitDB opens the database selected by cfg.DBDriver
func InitDB(cfg *Config) (*DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "postgres":
		if cfg.PostgresUrl == "" {
			return nil, fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
		db, err = OpenPostgres(cfg.PostgresUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	case "sqlite":
		db, err = OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return &DB{Gorm: db}, nil
}

// OpenPostgres initializes the PostgreSQL database connection using GORM
func OpenPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), gormConfig())
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to PostgreSQL!")
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file with foreign
// key enforcement switched on.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	log.Printf("Opened SQLite database at %s", path)
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

// Migrate creates or upgrades the schema for every model
func (db *DB) Migrate() error {
	if err := db.Gorm.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Println("Auto-migrations completed for all models.")
	return nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() {
	if db.Gorm == nil {
		return
	}
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		log.Printf("Error getting SQL DB from GORM: %v\n", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v\n", err)
	} else {
		log.Println("Database connection closed.")
	}
}
