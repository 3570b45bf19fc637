package handlers

import (
	"net/http"
	"strings"

	"stockroom/internal/apperr"
	"stockroom/internal/database"
	"stockroom/internal/logger"
	"stockroom/internal/middleware"
	"stockroom/internal/models"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *Handlers) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.CodeValidation, err, "invalid request body"))
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(c, apperr.New(apperr.CodeValidation, "username and password are required"))
		return
	}

	user, err := database.AuthenticateUser(h.db, req.Username, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.CodeAuthentication) {
			logger.Warn("Failed login attempt", "username", req.Username, "client_ip", c.ClientIP())
		}
		respondError(c, apperr.Classify(err, "failed to authenticate"))
		return
	}

	session, err := database.CreateSession(h.db, user.ID, h.cfg.SessionDuration)
	if err != nil {
		respondError(c, apperr.Classify(err, "failed to create session. Please try again."))
		return
	}

	middleware.SetSessionCookie(c, h.cfg, session.ID)
	logger.Info("User logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handlers) handleLogout(c *gin.Context) {
	if sessionID, err := c.Cookie(middleware.SessionCookie); err == nil && sessionID != "" {
		if err := database.DeleteSession(h.db, sessionID); err != nil {
			logger.Warn("Failed to delete session", "session_id", sessionID, "error", err)
		}
	}

	middleware.ClearSessionCookie(c, h.cfg)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handlers) handleMe(c *gin.Context) {
	user := c.MustGet("user").(*models.User)
	c.JSON(http.StatusOK, gin.H{"user": user})
}
