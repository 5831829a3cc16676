package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/gaeilgeapp/gaeilge-api/internal/notecards"
	"github.com/gaeilgeapp/gaeilge-api/internal/users"
)

// Open establishes the database connection, performs schema migrations and
// seeds fixed rows. SQLite backs development and tests; Postgres backs
// deployments. TranslateError is enabled so duplicate-key and foreign-key
// violations surface as gorm sentinel errors on both drivers.
func Open(driver, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
	}

	if err := db.AutoMigrate(
		&users.User{},
		&notecards.Category{},
		&notecards.Notecard{},
		&notecards.NotecardCategory{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("driver", driver))
	}

	return db, nil
}
