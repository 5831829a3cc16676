package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gaeilgeapp/gaeilge-api/internal/users"
)

const migrationSeedGuestUser = "2025-10-08_seed_guest_user"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationSeedGuestUser, apply: seedGuestUser},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// seedGuestUser inserts the fixed account backing guest-mode traffic. Every
// guest request resolves to this row's id.
func seedGuestUser(db *gorm.DB) error {
	guest := users.User{
		FirebaseUID: users.GuestSubject,
		Username:    "guest",
		Email:       "guest@gaeilge.app",
	}
	return db.Where("firebase_uid = ?", users.GuestSubject).
		FirstOrCreate(&guest).Error
}
