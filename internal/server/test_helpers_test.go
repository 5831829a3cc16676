package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gaeilgeapp/gaeilge-api/internal/auth"
	"github.com/gaeilgeapp/gaeilge-api/internal/database"
	"github.com/gaeilgeapp/gaeilge-api/internal/notecards"
	"github.com/gaeilgeapp/gaeilge-api/internal/users"
)

type stubVerifier struct {
	subject string
	err     error
}

func (s stubVerifier) Verify(context.Context, string) (auth.Claims, error) {
	if s.err != nil {
		return auth.Claims{}, s.err
	}
	return auth.Claims{Subject: s.subject}, nil
}

type stubProvisioner struct {
	account       auth.ProvisionedAccount
	createErr     error
	deleteErr     error
	resetErr      error
	deletedTokens []string
	resetEmails   []string
}

func (s *stubProvisioner) CreateAccount(context.Context, string, string) (auth.ProvisionedAccount, error) {
	if s.createErr != nil {
		return auth.ProvisionedAccount{}, s.createErr
	}
	return s.account, nil
}

func (s *stubProvisioner) DeleteAccount(_ context.Context, idToken string) error {
	s.deletedTokens = append(s.deletedTokens, idToken)
	return s.deleteErr
}

func (s *stubProvisioner) SendPasswordReset(_ context.Context, email string) error {
	s.resetEmails = append(s.resetEmails, email)
	return s.resetErr
}

type testEnv struct {
	handler http.Handler
	db      *gorm.DB
	users   *users.Service
}

func newTestEnv(t *testing.T, verifier TokenVerifier, provisioner AccountProvisioner) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open("sqlite", ":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	accountService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build users service: %v", err)
	}
	cardService, err := notecards.NewService(notecards.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build notecards service: %v", err)
	}
	categoryService, err := notecards.NewCategoryService(notecards.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to build category service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		Verifier:    verifier,
		Provisioner: provisioner,
		Users:       accountService,
		Notecards:   cardService,
		Categories:  categoryService,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	return testEnv{handler: handler, db: db, users: accountService}
}

func (env testEnv) seedCategory(t *testing.T, name string) notecards.Category {
	t.Helper()
	category := notecards.Category{Name: name}
	if err := env.db.Create(&category).Error; err != nil {
		t.Fatalf("failed to seed category %s: %v", name, err)
	}
	return category
}

func (env testEnv) seedUser(t *testing.T, subject, username, email string) users.User {
	t.Helper()
	user, err := env.users.Create(context.Background(), subject, username, email)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", subject, err)
	}
	return user
}

func (env testEnv) request(t *testing.T, method, path string, body any, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if decorate != nil {
		decorate(request)
	}

	recorder := httptest.NewRecorder()
	env.handler.ServeHTTP(recorder, request)
	return recorder
}

func asGuest(request *http.Request) {
	request.Header.Set(guestModeHeader, "true")
}

func decodeJSON[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.Unmarshal(recorder.Body.Bytes(), &value); err != nil {
		t.Fatalf("failed to decode response %s: %v", recorder.Body.String(), err)
	}
	return value
}
