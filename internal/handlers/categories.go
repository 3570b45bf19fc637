package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type categoryRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

func (h *Handlers) handleCategories(c *gin.Context) {
	categories, err := h.inventory.Categories()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handlers) handleRegisterCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.inventory.RegisterCategory(req.Name); err != nil {
		respondError(c, err)
		return
	}

	categories, err := h.inventory.Categories()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"categories": categories})
}
