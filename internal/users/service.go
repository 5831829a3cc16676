package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound indicates a verified identity has no local account yet.
	ErrUserNotFound = errors.New("users: user not found")
	// ErrInvalidSubject indicates the identity provider subject was empty.
	ErrInvalidSubject = errors.New("users: invalid subject")
)

// ServiceConfig describes the dependencies required for account resolution.
type ServiceConfig struct {
	Database *gorm.DB
}

// Service manages local user accounts keyed by identity-provider subject.
type Service struct {
	db    *gorm.DB
	cache sync.Map
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	return &Service{db: cfg.Database}, nil
}

// ResolveBySubject maps an identity-provider subject to the internal user id.
// A verified identity without a local account is an error, never an implicit
// registration; accounts are created only through Create.
func (s *Service) ResolveBySubject(ctx context.Context, subject string) (int64, error) {
	subject = normalize(subject)
	if subject == "" {
		return 0, ErrInvalidSubject
	}

	if cached, ok := s.cache.Load(subject); ok {
		if userID, ok := cached.(int64); ok {
			return userID, nil
		}
	}

	user, err := s.BySubject(ctx, subject)
	if err != nil {
		return 0, err
	}

	s.cache.Store(subject, user.ID)
	return user.ID, nil
}

// BySubject loads the full user row for an identity-provider subject.
func (s *Service) BySubject(ctx context.Context, subject string) (User, error) {
	subject = normalize(subject)
	if subject == "" {
		return User{}, ErrInvalidSubject
	}

	var user User
	err := s.db.WithContext(ctx).
		Where("firebase_uid = ?", subject).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ByID loads a user row by its internal id.
func (s *Service) ByID(ctx context.Context, id int64) (User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// List returns every local account ordered by id.
func (s *Service) List(ctx context.Context) ([]User, error) {
	var accounts []User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create inserts a local account for a freshly provisioned identity.
func (s *Service) Create(ctx context.Context, subject, username, email string) (User, error) {
	subject = normalize(subject)
	if subject == "" {
		return User{}, ErrInvalidSubject
	}

	user := User{
		FirebaseUID: subject,
		Username:    normalize(username),
		Email:       normalize(email),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return User{}, err
	}
	s.cache.Store(subject, user.ID)
	return user, nil
}
