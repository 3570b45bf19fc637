package handlers

import (
	"io"
	"net/http"

	"stockroom/internal/apperr"
	"stockroom/internal/assistant"
	"stockroom/internal/inventory"
	"stockroom/internal/logger"

	"github.com/gin-gonic/gin"
)

type askRequest struct {
	Question string `json:"question" binding:"required"`
	// Apply defaults to true: a complete suggestion is added to the inventory.
	Apply *bool `json:"apply"`
}

type reportRequest struct {
	Type string `json:"type"`
}

func (h *Handlers) handleAsk(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	var req askRequest
	if !bindJSON(c, &req) {
		return
	}

	items, err := h.inventory.List(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.inventory.Categories()
	if err != nil {
		respondError(c, err)
		return
	}

	reply, err := h.assistant.Ask(c.Request.Context(), req.Question, items, categories)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"reply": reply.Text, "suggestion": reply.Suggestion}
	if reply.Suggestion != nil && (req.Apply == nil || *req.Apply) {
		result, err := h.inventory.ApplySuggestion(userID, *reply.Suggestion)
		if err != nil {
			logger.Warn("Assistant suggestion rejected", "user_id", userID, "error", err)
			resp["apply_error"] = apperr.MessageOf(err)
		} else {
			resp["applied"] = result
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) handleReport(c *gin.Context) {
	userID := c.MustGet("user_id").(int)

	var req reportRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	kind, err := assistant.ParseReportKind(req.Type)
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := h.inventory.List(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := h.inventory.History(userID, "", assistant.ReportHistoryLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.assistant.Report(c.Request.Context(), kind, items, history)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"type": kind, "report": report})
}

// handleVision takes a multipart upload in the "image" field. With save=true
// the image is also stored and its path returned for a follow-up add.
func (h *Handlers) handleVision(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		respondError(c, apperr.Wrap(apperr.CodeValidation, err, "image upload is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes()+1))
	if err != nil {
		respondError(c, apperr.Wrap(apperr.CodeValidation, err, "failed to read upload"))
		return
	}
	if _, err := inventory.CheckImage(data, h.cfg.MaxUploadBytes()); err != nil {
		respondError(c, err)
		return
	}

	analysis, err := h.vision.Analyze(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"vision_results":   analysis.Vision,
		"enhanced_results": analysis.Suggestion,
	}
	if c.PostForm("save") == "true" {
		path, err := h.inventory.SaveImage(data)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["image_path"] = path
	}

	c.JSON(http.StatusOK, resp)
}
