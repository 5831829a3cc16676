package notecards

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingUserID   = errors.New("user identifier is required")
	noOpLogger         = zap.NewNop()

	// ErrNotFound covers both an absent notecard and one owned by a different
	// user. The two cases are deliberately indistinguishable to callers.
	ErrNotFound = errors.New("notecards: notecard not found")
)

// ServiceError carries a dotted operation code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew     = "notecards.service.new"
	opList           = "notecards.list"
	opGet            = "notecards.get"
	opCreate         = "notecards.create"
	opUpdate         = "notecards.update"
	opDelete         = "notecards.delete"
	opRemoveCategory = "notecards.remove_category"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig bundles the dependencies of the notecard service.
type ServiceConfig struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// Service owns notecard reads and writes. Every operation takes a resolved
// internal user id so guest and authenticated traffic share one path.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService constructs the notecard service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, logger: logger}, nil
}

// List returns every notecard owned by userID with nested categories, most
// recently created first.
func (s *Service) List(ctx context.Context, userID int64) ([]View, error) {
	if userID <= 0 {
		s.logError(opList, "missing_user_id", errMissingUserID)
		return nil, newServiceError(opList, "missing_user_id", errMissingUserID)
	}

	var rows []aggregateRow
	if err := s.db.WithContext(ctx).Raw(listRowsQuery, userID).Scan(&rows).Error; err != nil {
		s.logError(opList, "query_failed", err, zap.Int64("user_id", userID))
		return nil, newServiceError(opList, "query_failed", err)
	}

	return foldViews(rows), nil
}

// Get returns one owned notecard with nested categories.
func (s *Service) Get(ctx context.Context, userID, notecardID int64) (View, error) {
	view, err := fetchView(s.db.WithContext(ctx), userID, notecardID)
	if errors.Is(err, ErrNotFound) {
		return View{}, newServiceError(opGet, "not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opGet, "query_failed", err,
			zap.Int64("user_id", userID),
			zap.Int64("notecard_id", notecardID))
		return View{}, newServiceError(opGet, "query_failed", err)
	}
	return view, nil
}

// Create inserts a notecard and its association rows as one transaction, then
// re-reads the nested view so the caller sees exactly what was committed.
// Category refs are trusted to carry existing ids; a bad id fails the whole
// write with a foreign key violation.
func (s *Service) Create(ctx context.Context, userID int64, englishPhrase, irishPhrase string, categories []CategoryRef) (View, error) {
	if userID <= 0 {
		s.logError(opCreate, "missing_user_id", errMissingUserID)
		return View{}, newServiceError(opCreate, "missing_user_id", errMissingUserID)
	}

	var view View
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		card := Notecard{
			UserID:        userID,
			EnglishPhrase: englishPhrase,
			IrishPhrase:   irishPhrase,
		}
		if err := tx.Create(&card).Error; err != nil {
			s.logError(opCreate, "insert_failed", err, zap.Int64("user_id", userID))
			return newServiceError(opCreate, "insert_failed", err)
		}

		if len(categories) > 0 {
			associations := associationRows(card.ID, categories)
			if err := tx.Create(&associations).Error; err != nil {
				s.logError(opCreate, "associations_insert_failed", err,
					zap.Int64("user_id", userID),
					zap.Int64("notecard_id", card.ID))
				return newServiceError(opCreate, "associations_insert_failed", err)
			}
		}

		fetched, err := fetchView(tx, userID, card.ID)
		if err != nil {
			s.logError(opCreate, "refetch_failed", err,
				zap.Int64("user_id", userID),
				zap.Int64("notecard_id", card.ID))
			return newServiceError(opCreate, "refetch_failed", err)
		}
		view = fetched
		return nil
	})
	if txErr != nil {
		return View{}, txErr
	}
	return view, nil
}

// Update rewrites the phrase columns of an owned notecard and, when a
// non-empty category set is supplied, replaces the whole association set
// inside the same transaction. An empty set leaves existing associations
// untouched; there is no partial diffing.
func (s *Service) Update(ctx context.Context, userID, notecardID int64, englishPhrase, irishPhrase string, categories []CategoryRef) (View, error) {
	if userID <= 0 {
		s.logError(opUpdate, "missing_user_id", errMissingUserID)
		return View{}, newServiceError(opUpdate, "missing_user_id", errMissingUserID)
	}

	var view View
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Notecard{}).
			Where("id = ? AND user_id = ?", notecardID, userID).
			Updates(map[string]interface{}{
				"english_phrase": englishPhrase,
				"irish_phrase":   irishPhrase,
			})
		if result.Error != nil {
			s.logError(opUpdate, "update_failed", result.Error,
				zap.Int64("user_id", userID),
				zap.Int64("notecard_id", notecardID))
			return newServiceError(opUpdate, "update_failed", result.Error)
		}
		if result.RowsAffected == 0 {
			return newServiceError(opUpdate, "not_found", ErrNotFound)
		}

		if len(categories) > 0 {
			if err := tx.Where("notecard_id = ?", notecardID).
				Delete(&NotecardCategory{}).Error; err != nil {
				s.logError(opUpdate, "associations_clear_failed", err,
					zap.Int64("user_id", userID),
					zap.Int64("notecard_id", notecardID))
				return newServiceError(opUpdate, "associations_clear_failed", err)
			}
			associations := associationRows(notecardID, categories)
			if err := tx.Create(&associations).Error; err != nil {
				s.logError(opUpdate, "associations_insert_failed", err,
					zap.Int64("user_id", userID),
					zap.Int64("notecard_id", notecardID))
				return newServiceError(opUpdate, "associations_insert_failed", err)
			}
		}

		fetched, err := fetchView(tx, userID, notecardID)
		if err != nil {
			s.logError(opUpdate, "refetch_failed", err,
				zap.Int64("user_id", userID),
				zap.Int64("notecard_id", notecardID))
			return newServiceError(opUpdate, "refetch_failed", err)
		}
		view = fetched
		return nil
	})
	if txErr != nil {
		return View{}, txErr
	}
	return view, nil
}

// Delete removes an owned notecard. Association rows cascade with the row.
func (s *Service) Delete(ctx context.Context, userID, notecardID int64) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notecardID, userID).
		Delete(&Notecard{})
	if result.Error != nil {
		s.logError(opDelete, "delete_failed", result.Error,
			zap.Int64("user_id", userID),
			zap.Int64("notecard_id", notecardID))
		return newServiceError(opDelete, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDelete, "not_found", ErrNotFound)
	}
	return nil
}

// RemoveCategory detaches one category from an owned notecard. Removing an
// association that is already absent succeeds.
func (s *Service) RemoveCategory(ctx context.Context, userID, notecardID, categoryID int64) error {
	var card Notecard
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notecardID, userID).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newServiceError(opRemoveCategory, "not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opRemoveCategory, "ownership_check_failed", err,
			zap.Int64("user_id", userID),
			zap.Int64("notecard_id", notecardID))
		return newServiceError(opRemoveCategory, "ownership_check_failed", err)
	}

	if err := s.db.WithContext(ctx).
		Where("notecard_id = ? AND category_id = ?", notecardID, categoryID).
		Delete(&NotecardCategory{}).Error; err != nil {
		s.logError(opRemoveCategory, "delete_failed", err,
			zap.Int64("user_id", userID),
			zap.Int64("notecard_id", notecardID),
			zap.Int64("category_id", categoryID))
		return newServiceError(opRemoveCategory, "delete_failed", err)
	}
	return nil
}

// fetchView runs the single-card aggregation against the provided handle so
// post-write re-reads happen inside the same transaction as the write.
func fetchView(tx *gorm.DB, userID, notecardID int64) (View, error) {
	var rows []aggregateRow
	if err := tx.Raw(singleRowsQuery, notecardID, userID).Scan(&rows).Error; err != nil {
		return View{}, err
	}
	views := foldViews(rows)
	if len(views) == 0 {
		return View{}, ErrNotFound
	}
	return views[0], nil
}

func associationRows(notecardID int64, categories []CategoryRef) []NotecardCategory {
	rows := make([]NotecardCategory, 0, len(categories))
	for _, category := range categories {
		rows = append(rows, NotecardCategory{
			NotecardID: notecardID,
			CategoryID: category.ID,
		})
	}
	return rows
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("notecards service error", attrs...)
}
