package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryPayload struct {
	Name string `json:"name" binding:"required"`
}

func (h *httpHandler) handleListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *httpHandler) handleCreateCategory(c *gin.Context) {
	var payload categoryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	category, err := h.categories.Create(c.Request.Context(), payload.Name)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *httpHandler) handleDeleteCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.categories.Delete(c.Request.Context(), categoryID); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("category deleted with id %d", categoryID),
	})
}
