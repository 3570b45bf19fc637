package main

import (
	"context"
	"os"

	"stockroom/internal/assistant"
	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/handlers"
	"stockroom/internal/inventory"
	"stockroom/internal/logger"
	"stockroom/internal/metrics"
	"stockroom/internal/middleware"
	"stockroom/internal/notify"
	"stockroom/internal/vision"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Initialize(logger.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	if err := database.SeedUsers(db, cfg.Users.Credentials()); err != nil {
		logger.Error("Failed to seed users", "error", err)
		os.Exit(1)
	}
	if err := database.CleanupExpiredSessions(db); err != nil {
		logger.Warn("Failed to clean up expired sessions", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(reg)

	mailer := notify.NewMailer(cfg.Mail)
	if mailer.IsEnabled() {
		logger.Info("Low-stock alerts enabled with Mailgun")
	} else {
		logger.Info("Low-stock alerts disabled - Mailgun not configured")
	}

	svc := inventory.NewService(db,
		inventory.WithNotifier(mailer),
		inventory.WithMetrics(collector),
		inventory.WithImageDir(cfg.ImageDir, cfg.MaxUploadBytes()),
	)

	var chat assistant.ChatCompleter
	if cfg.OpenAI.Enabled() {
		chat = assistant.NewClient(cfg.OpenAI.APIKey)
	} else {
		logger.Warn("Assistant disabled - OPENAI_API_KEY not set")
	}
	chatGateway := assistant.NewGateway(chat, cfg.OpenAI.Model, collector)

	var annotator vision.Annotator
	google, err := vision.NewGoogleAnnotator(context.Background(), cfg.Google)
	if err != nil {
		logger.Warn("Vision disabled", "error", err)
	} else {
		annotator = google
	}
	visionGateway := vision.NewGateway(annotator, chat, cfg.OpenAI.Model, collector)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg))

	handlers.SetupRoutes(r, handlers.New(db, cfg, svc, chatGateway, visionGateway, reg))

	logger.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
