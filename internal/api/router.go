package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"haytruco/internal/middleware"
	"haytruco/internal/service"
	"haytruco/internal/ws"
	appErr "haytruco/pkg/errors"
	"haytruco/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

// providerCatalog mirrors what the frontend offers in its provider picker.
// Only providers the manager actually registered are returned.
var providerCatalog = []providerInfo{
	{ID: "openai", Name: "OpenAI", Models: []string{"gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo"}},
	{ID: "deepseek", Name: "DeepSeek", Models: []string{"deepseek-chat"}},
	{ID: "ollama", Name: "Ollama (local)", Models: []string{"llama3.1", "mistral", "qwen2.5"}},
}

type providerInfo struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Models []string `json:"models"`
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Room)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", handler.Health)
		apiGroup.GET("/providers", handler.ListProviders)
	}

	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/auth/login", handler.AdminLogin)

		protected := adminGroup.Group("/")
		protected.Use(middleware.AdminAuthRequired())
		{
			protected.GET("/sessions", handler.AdminListSessions)
			protected.GET("/sessions/:id/decisions", handler.AdminListDecisions)
		}
	}

	r.GET("/ws", wsHandler.HandleWS)
}

func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":    "ok",
		"providers": h.services.AI.Providers(),
	})
}

func (h *Handler) ListProviders(c *gin.Context) {
	available := make([]providerInfo, 0, len(providerCatalog))
	for _, p := range providerCatalog {
		if h.services.AI.Has(p.ID) {
			available = append(available, p)
		}
	}
	response.Success(c, gin.H{"providers": available})
}

type adminLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var body adminLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.services.Admin.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case appErr.ErrAdminNotFound, appErr.ErrInvalidAdminPassword:
			status = http.StatusUnauthorized
		case appErr.ErrAdminDisabled:
			status = http.StatusForbidden
		default:
			status = http.StatusInternalServerError
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, resp)
}

func (h *Handler) AdminListSessions(c *gin.Context) {
	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 20)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Session.ListSessions(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"items": result.Items,
		"total": result.Total,
		"page":  page,
		"size":  size,
	})
}

func (h *Handler) AdminListDecisions(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, "missing session id")
		return
	}

	page, err := parsePositiveIntQuery(c, "page", 1)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	size, err := parsePositiveIntQuery(c, "size", 50)
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.services.Session.ListDecisions(c.Request.Context(), sessionID, page, size)
	if err != nil {
		if errors.Is(err, appErr.ErrSessionNotFound) {
			response.Error(c, http.StatusNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{
		"items": result.Items,
		"total": result.Total,
		"page":  page,
		"size":  size,
	})
}

func parsePositiveIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 1 {
		return 0, fmt.Errorf("invalid %s parameter", key)
	}
	return val, nil
}
