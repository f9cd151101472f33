package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/okanb/health-tracker/internal/config"
)

// NewDB opens the configured database and brings the schema up to date.
// SQLite is the default engine; MYSQL_DSN switches to MySQL.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.DB.Driver {
	case "mysql":
		dial = mysql.Open(cfg.DB.DSN)
	default:
		dial = sqlite.Open(cfg.DB.Path)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if db.Dialector.Name() == "sqlite" {
		if err := applySQLitePragmas(db); err != nil {
			return nil, err
		}
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(&UserProfile{}, &UserRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// applySQLitePragmas enforces foreign keys and enables WAL so readers can
// overlap a writer.
func applySQLitePragmas(db *gorm.DB) error {
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}
