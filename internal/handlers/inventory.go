package handlers

import (
	"net/http"
	"strconv"

	"stockroom/internal/apperr"
	"stockroom/internal/inventory"

	"github.com/gin-gonic/gin"
)

type bulkEditRequest struct {
	Rows []inventory.EditRow `json:"rows" binding:"required"`
}

type usageRequest struct {
	Category string  `json:"category"`
	Quantity float64 `json:"quantity"`
}

func (h *Handlers) handleListInventory(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	items, err := h.inventory.List(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handlers) handleAddProduct(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	var details inventory.ProductDetails
	if !bindJSON(c, &details) {
		return
	}

	result, err := h.inventory.AddOrMergeProduct(userID, details)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Merged {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

func (h *Handlers) handleBulkEdit(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	var req bulkEditRequest
	if !bindJSON(c, &req) {
		return
	}

	results := h.inventory.BulkEdit(c.Request.Context(), userID, req.Rows)

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"updated": len(results) - failed,
		"failed":  failed,
	})
}

func (h *Handlers) handleDeleteProduct(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	if err := h.inventory.Delete(userID, c.Param("name"), c.Query("category")); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handlers) handleRecordUsage(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	var req usageRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.inventory.RecordUsage(c.Request.Context(), userID, c.Param("name"), req.Category, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item, "low_stock": item.IsLowStock()})
}

func (h *Handlers) handleLowStock(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	items, err := h.inventory.ComputeLowStock(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handlers) handleUsageHistory(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, apperr.New(apperr.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	events, err := h.inventory.History(userID, c.Query("product"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handlers) handleStats(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	stats, err := h.inventory.Stats(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
