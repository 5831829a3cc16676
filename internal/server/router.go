package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gaeilgeapp/gaeilge-api/internal/auth"
	"github.com/gaeilgeapp/gaeilge-api/internal/notecards"
	"github.com/gaeilgeapp/gaeilge-api/internal/users"
)

const (
	userIDContextKey    = "gaeilge_user_id"
	subjectContextKey   = "gaeilge_subject"
	requestIDContextKey = "gaeilge_request_id"
	requestIDHeader     = "X-Request-ID"
	guestModeHeader     = "X-Guest-Mode"

	defaultCookieName   = "access_token"
	sessionCookieMaxAge = 3600
)

var (
	errMissingVerifier         = errors.New("token verifier dependency required")
	errMissingUsersService     = errors.New("users service dependency required")
	errMissingNotecardsService = errors.New("notecards service dependency required")
	errMissingCategoryService  = errors.New("category service dependency required")
)

// TokenVerifier validates an identity-provider ID token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Claims, error)
}

// AccountProvisioner manages identity-provider account lifecycle.
type AccountProvisioner interface {
	CreateAccount(ctx context.Context, email, password string) (auth.ProvisionedAccount, error)
	DeleteAccount(ctx context.Context, idToken string) error
	SendPasswordReset(ctx context.Context, email string) error
}

// Dependencies wires the services the HTTP layer dispatches into.
type Dependencies struct {
	Verifier          TokenVerifier
	Provisioner       AccountProvisioner
	Users             *users.Service
	Notecards         *notecards.Service
	Categories        *notecards.CategoryService
	Logger            *zap.Logger
	SessionCookieName string
}

// NewHTTPHandler builds the gin router with the full route table.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Verifier == nil {
		return nil, errMissingVerifier
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Notecards == nil {
		return nil, errMissingNotecardsService
	}
	if deps.Categories == nil {
		return nil, errMissingCategoryService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cookieName := deps.SessionCookieName
	if cookieName == "" {
		cookieName = defaultCookieName
	}

	handler := &httpHandler{
		verifier:    deps.Verifier,
		provisioner: deps.Provisioner,
		users:       deps.Users,
		notecards:   deps.Notecards,
		categories:  deps.Categories,
		logger:      logger,
		cookieName:  cookieName,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(corsMiddleware())

	router.GET("/", handler.handleInfo)

	router.GET("/users", handler.handleListUsers)
	router.GET("/users/:id", handler.handleGetUser)

	router.GET("/categories", handler.handleListCategories)
	router.POST("/categories/create", handler.handleCreateCategory)
	router.DELETE("/categories/:id", handler.handleDeleteCategory)

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)
	router.POST("/auth/logout", handler.handleLogout)
	router.POST("/auth/reset-password", handler.handleResetPassword)
	router.POST("/auth/verify-token", handler.handleVerifyToken)
	router.GET("/auth/me", handler.resolveIdentity, handler.handleCurrentUser)

	cards := router.Group("/notecards")
	cards.Use(handler.resolveIdentity)
	cards.GET("", handler.handleListNotecards)
	cards.POST("/create", handler.handleCreateNotecard)
	cards.PUT("/:id", handler.handleUpdateNotecard)
	cards.DELETE("/:id", handler.handleDeleteNotecard)
	cards.DELETE("/:id/categories/:categoryId", handler.handleRemoveCategory)

	return router, nil
}

type httpHandler struct {
	verifier    TokenVerifier
	provisioner AccountProvisioner
	users       *users.Service
	notecards   *notecards.Service
	categories  *notecards.CategoryService
	logger      *zap.Logger
	cookieName  string
}

func (h *httpHandler) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"info": "Gaeilge notecard API"})
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", guestModeHeader, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// respondServiceError maps service failures onto the HTTP error taxonomy.
// Ownership failures and missing rows share one 404 shape so other users'
// data never leaks through status differences.
func (h *httpHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notecards.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "notecard not found"})
	case errors.Is(err, notecards.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
	case errors.Is(err, users.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"error": "resource already exists"})
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		c.JSON(http.StatusConflict, gin.H{"error": "referenced resource does not exist"})
	default:
		fields := []zap.Field{zap.Error(err), zap.String("request_id", c.GetString(requestIDContextKey))}
		var serviceErr *notecards.ServiceError
		if errors.As(err, &serviceErr) {
			fields = append(fields, zap.String("code", serviceErr.Code()))
			h.logger.Error("request failed", fields...)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": serviceErr.Code()})
			return
		}
		h.logger.Error("request failed", fields...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
