package notecards

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrCategoryNotFound indicates the referenced category does not exist.
var ErrCategoryNotFound = errors.New("notecards: category not found")

const (
	opCategoryList   = "categories.list"
	opCategoryCreate = "categories.create"
	opCategoryDelete = "categories.delete"
)

// CategoryService owns the shared category taxonomy. Categories have no
// per-user owner; every account reads and writes the same set.
type CategoryService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCategoryService constructs the category service.
func NewCategoryService(cfg ServiceConfig) (*CategoryService, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &CategoryService{db: cfg.Database, logger: logger}, nil
}

// List returns every category ordered by id.
func (s *CategoryService) List(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&categories).Error; err != nil {
		s.logError(opCategoryList, "query_failed", err)
		return nil, newServiceError(opCategoryList, "query_failed", err)
	}
	return categories, nil
}

// Create inserts a category. Names are unique; a duplicate surfaces as a
// constraint violation for the transport layer to map.
func (s *CategoryService) Create(ctx context.Context, name string) (Category, error) {
	category := Category{Name: name}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		s.logError(opCategoryCreate, "insert_failed", err, zap.String("name", name))
		return Category{}, newServiceError(opCategoryCreate, "insert_failed", err)
	}
	return category, nil
}

// Delete removes a category by id. Association rows referencing it cascade.
func (s *CategoryService) Delete(ctx context.Context, categoryID int64) error {
	result := s.db.WithContext(ctx).Delete(&Category{}, categoryID)
	if result.Error != nil {
		s.logError(opCategoryDelete, "delete_failed", result.Error, zap.Int64("category_id", categoryID))
		return newServiceError(opCategoryDelete, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opCategoryDelete, "not_found", ErrCategoryNotFound)
	}
	return nil
}

func (s *CategoryService) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *CategoryService) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("categories service error", attrs...)
}
