package handlers

import (
	"database/sql"
	"net/http"

	"stockroom/internal/apperr"
	"stockroom/internal/assistant"
	"stockroom/internal/config"
	"stockroom/internal/inventory"
	"stockroom/internal/logger"
	"stockroom/internal/middleware"
	"stockroom/internal/vision"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	inventory *inventory.Service
	assistant *assistant.Gateway
	vision    *vision.Gateway
	gatherer  prometheus.Gatherer
}

func New(db *sql.DB, cfg *config.Config, inv *inventory.Service, chat *assistant.Gateway, vis *vision.Gateway, gatherer prometheus.Gatherer) *Handlers {
	return &Handlers{
		db:        db,
		cfg:       cfg,
		inventory: inv,
		assistant: chat,
		vision:    vis,
		gatherer:  gatherer,
	}
}

func SetupRoutes(r *gin.Engine, h *Handlers) {
	// Product names travel as path segments and may contain an escaped "/".
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(h.cfg))

	r.GET("/healthz", h.handleHealth)
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	r.POST("/login", middleware.AuthRateLimit(h.cfg), h.handleLogin)
	r.POST("/logout", h.handleLogout)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired(h.db, h.cfg))
	{
		api.GET("/me", h.handleMe)

		api.GET("/inventory", h.handleListInventory)
		api.POST("/inventory", h.handleAddProduct)
		api.PUT("/inventory", h.handleBulkEdit)
		api.GET("/inventory/low-stock", h.handleLowStock)
		api.DELETE("/inventory/:name", h.handleDeleteProduct)
		api.POST("/inventory/:name/use", h.handleRecordUsage)

		api.GET("/usage", h.handleUsageHistory)
		api.GET("/stats", h.handleStats)

		api.GET("/categories", h.handleCategories)
		api.POST("/categories", h.handleRegisterCategory)

		gateways := api.Group("/")
		gateways.Use(middleware.GatewayRateLimit(h.cfg))
		gateways.POST("/assistant", h.handleAsk)
		gateways.POST("/assistant/report", h.handleReport)
		gateways.POST("/vision", middleware.MaxBodySize(h.cfg.MaxUploadBytes()+1<<20), h.handleVision)
	}
}

func (h *Handlers) handleHealth(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		logger.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"assistant": h.assistant.Enabled(),
		"vision":    h.vision.Enabled(),
	})
}

// respondError maps err to its HTTP status and writes the user-facing
// message. Unclassified errors never leak their text.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	meta := apperr.MetadataFor(code)

	body := gin.H{"error": meta.PublicMessage, "code": code}
	if typed := apperr.As(err); typed != nil {
		body["error"] = typed.Message()
		if details := typed.Details(); details != nil {
			body["details"] = details
		}
	}

	if meta.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "code", code, "error", err)
	}

	c.AbortWithStatusJSON(meta.HTTPStatus, body)
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, apperr.Wrap(apperr.CodeValidation, err, "invalid request body"))
		return false
	}
	return true
}
