package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gaeilgeapp/gaeilge-api/internal/auth"
	"github.com/gaeilgeapp/gaeilge-api/internal/users"
)

type registerPayload struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleRegister provisions an identity-provider account and the local user
// row as a pair. When the local insert fails after provisioning succeeded the
// provider account is deleted again, and the response says which side failed.
func (h *httpHandler) handleRegister(c *gin.Context) {
	if h.provisioner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "registration is not configured"})
		return
	}

	var payload registerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	account, err := h.provisioner.CreateAccount(c.Request.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrEmailExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		h.logger.Error("identity provider account creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "error creating user",
			"details": "identity provider rejected the account",
		})
		return
	}

	user, err := h.users.Create(c.Request.Context(), account.Subject, payload.Username, payload.Email)
	if err != nil {
		h.logger.Error("local account creation failed", zap.Error(err), zap.String("subject", account.Subject))
		if rollbackErr := h.provisioner.DeleteAccount(c.Request.Context(), account.IDToken); rollbackErr != nil {
			h.logger.Error("identity provider rollback failed", zap.Error(rollbackErr), zap.String("subject", account.Subject))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "error creating user",
				"details": "local account creation failed and the identity provider account could not be rolled back",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "error creating user",
			"details": "local account creation failed; identity provider account rolled back",
		})
		return
	}

	c.JSON(http.StatusCreated, user)
}

type loginPayload struct {
	IDToken string `json:"idToken" binding:"required"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.IDToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing id token"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), payload.IDToken)
	if err != nil {
		h.logger.Warn("login token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid id token"})
		return
	}

	user, err := h.users.BySubject(c.Request.Context(), claims.Subject)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.SetCookie(h.cookieName, payload.IDToken, sessionCookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

type resetPasswordPayload struct {
	Email string `json:"email" binding:"required"`
}

func (h *httpHandler) handleResetPassword(c *gin.Context) {
	if h.provisioner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "password reset is not configured"})
		return
	}

	var payload resetPasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	if err := h.provisioner.SendPasswordReset(c.Request.Context(), payload.Email); err != nil {
		h.logger.Error("password reset request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to send password reset email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password reset email sent"})
}

func (h *httpHandler) handleVerifyToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false, "error": "no token provided"})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

	claims, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false, "error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "uid": claims.Subject})
}

func (h *httpHandler) handleCurrentUser(c *gin.Context) {
	user, err := h.users.ByID(c.Request.Context(), c.GetInt64(userIDContextKey))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) handleListUsers(c *gin.Context) {
	accounts, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *httpHandler) handleGetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.ByID(c.Request.Context(), userID)
	if errors.Is(err, users.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
