package notecards

import (
	"context"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := db.AutoMigrate(&Category{}, &Notecard{}, &NotecardCategory{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *CategoryService, *gorm.DB) {
	t.Helper()
	db := newTestDatabase(t)
	service, err := NewService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create notecard service: %v", err)
	}
	categoryService, err := NewCategoryService(ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create category service: %v", err)
	}
	return service, categoryService, db
}

func mustCategory(t *testing.T, service *CategoryService, name string) Category {
	t.Helper()
	category, err := service.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("failed to create category %q: %v", name, err)
	}
	return category
}

func ref(category Category) CategoryRef {
	return CategoryRef{ID: category.ID, Name: category.Name}
}
