package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gaeilgeapp/gaeilge-api/internal/notecards"
)

type notecardPayload struct {
	EnglishPhrase string                  `json:"englishPhrase" binding:"required"`
	IrishPhrase   string                  `json:"irishPhrase" binding:"required"`
	Categories    []notecards.CategoryRef `json:"categories"`
}

func (h *httpHandler) handleListNotecards(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	views, err := h.notecards.List(c.Request.Context(), userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *httpHandler) handleCreateNotecard(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	var payload notecardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "englishPhrase and irishPhrase are required"})
		return
	}

	view, err := h.notecards.Create(c.Request.Context(), userID, payload.EnglishPhrase, payload.IrishPhrase, payload.Categories)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *httpHandler) handleUpdateNotecard(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	notecardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var payload notecardPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "englishPhrase and irishPhrase are required"})
		return
	}

	view, err := h.notecards.Update(c.Request.Context(), userID, notecardID, payload.EnglishPhrase, payload.IrishPhrase, payload.Categories)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleDeleteNotecard(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	notecardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notecards.Delete(c.Request.Context(), userID, notecardID); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("notecard deleted with id %d", notecardID),
	})
}

func (h *httpHandler) handleRemoveCategory(c *gin.Context) {
	userID := c.GetInt64(userIDContextKey)

	notecardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	categoryID, ok := parseIDParam(c, "categoryId")
	if !ok {
		return
	}

	if err := h.notecards.RemoveCategory(c.Request.Context(), userID, notecardID, categoryID); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "category removed from notecard",
	})
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s parameter", name)})
		return 0, false
	}
	return value, true
}
