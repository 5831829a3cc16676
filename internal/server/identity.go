package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gaeilgeapp/gaeilge-api/internal/users"
)

// resolveIdentity maps the inbound credential to an internal user id and
// stores it in the request context. The guest header is honored before any
// token work, so guest traffic never needs a credential. Token lookup prefers
// the session cookie and falls back to the Authorization header.
func (h *httpHandler) resolveIdentity(c *gin.Context) {
	if strings.EqualFold(c.GetHeader(guestModeHeader), "true") {
		userID, err := h.users.ResolveBySubject(c.Request.Context(), users.GuestSubject)
		if err != nil {
			h.logger.Error("guest identity resolution failed",
				zap.Error(err),
				zap.String("request_id", c.GetString(requestIDContextKey)))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Set(subjectContextKey, users.GuestSubject)
		c.Set(userIDContextKey, userID)
		c.Next()
		return
	}

	token := extractToken(c, h.cookieName)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("token verification failed",
			zap.Error(err),
			zap.String("request_id", c.GetString(requestIDContextKey)))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
		return
	}

	userID, err := h.users.ResolveBySubject(c.Request.Context(), claims.Subject)
	if errors.Is(err, users.ErrUserNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		h.logger.Error("identity resolution failed",
			zap.Error(err),
			zap.String("request_id", c.GetString(requestIDContextKey)))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.Set(subjectContextKey, claims.Subject)
	c.Set(userIDContextKey, userID)
	c.Next()
}

func extractToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
