package database

import (
	"testing"

	"go.uber.org/zap"

	"github.com/gaeilgeapp/gaeilge-api/internal/notecards"
	"github.com/gaeilgeapp/gaeilge-api/internal/users"
)

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open("sqlite", "", zap.NewNop()); err == nil {
		t.Fatalf("expected open to fail without dsn")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", ":memory:", zap.NewNop()); err == nil {
		t.Fatalf("expected open to fail for unknown driver")
	}
}

func TestOpenSeedsGuestUser(t *testing.T) {
	db, err := Open("sqlite", ":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	var guest users.User
	if err := db.Where("firebase_uid = ?", users.GuestSubject).Take(&guest).Error; err != nil {
		t.Fatalf("expected guest user to be seeded: %v", err)
	}
	if guest.Username != "guest" {
		t.Fatalf("unexpected guest username %q", guest.Username)
	}

	var record migrationRecord
	if err := db.Where("name = ?", migrationSeedGuestUser).Take(&record).Error; err != nil {
		t.Fatalf("expected migration record to be written: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		t.Fatalf("expected migration timestamp to be recorded")
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db, err := Open("sqlite", ":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := applyMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("re-running migrations failed: %v", err)
	}

	var guests int64
	if err := db.Model(&users.User{}).Where("firebase_uid = ?", users.GuestSubject).Count(&guests).Error; err != nil {
		t.Fatalf("failed to count guest rows: %v", err)
	}
	if guests != 1 {
		t.Fatalf("expected exactly one guest row, got %d", guests)
	}
}

func TestOpenEnforcesForeignKeys(t *testing.T) {
	db, err := Open("sqlite", ":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	orphan := notecards.NotecardCategory{NotecardID: 999, CategoryID: 999}
	if err := db.Create(&orphan).Error; err == nil {
		t.Fatalf("expected orphan association insert to violate foreign keys")
	}
}
