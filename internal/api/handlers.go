package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/romangod6/sitemap-gen/config"
	"github.com/romangod6/sitemap-gen/internal/errhandler"
	"github.com/romangod6/sitemap-gen/internal/models"
	"github.com/romangod6/sitemap-gen/internal/sitemap"
	"github.com/romangod6/sitemap-gen/internal/storage"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

type Handler struct {
	gen    *sitemap.Generator
	store  storage.Store
	logger *utils.Logger
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type PaginationResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalCount int         `json:"total_count,omitempty"`
}

type GenerationResponse struct {
	Stats      models.Stats `json:"stats"`
	OutputPath string       `json:"outputPath,omitempty"`
	Summary    string       `json:"summary"`
	Warnings   []string     `json:"warnings"`
}

type routeConfigRequest struct {
	Route string `json:"route" binding:"required"`
	config.RouteOverride
}

type excludeRequest struct {
	Path string `json:"path" binding:"required"`
}

func NewHandler(gen *sitemap.Generator, store storage.Store, logger *utils.Logger) *Handler {
	return &Handler{gen: gen, store: store, logger: logger}
}

// ServeSitemap generates a fresh document on every request.
func (h *Handler) ServeSitemap(c *gin.Context) {
	xml, err := h.gen.Generate(c.Request.Context())
	if err != nil {
		h.logger.LogError("Error generating sitemap: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate sitemap", Details: h.errorDetails()})
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(xml))
}

func (h *Handler) GetStats(c *gin.Context) {
	_, stats, err := h.gen.GenerateWithStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate sitemap", Details: h.errorDetails()})
		return
	}
	c.JSON(http.StatusOK, h.generationResponse(stats, ""))
}

func (h *Handler) Generate(c *gin.Context) {
	stats, err := h.gen.GenerateAndWrite(c.Request.Context())
	if err != nil {
		h.logger.LogError("Error writing sitemap: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate sitemap", Details: h.errorDetails()})
		return
	}
	c.JSON(http.StatusOK, h.generationResponse(stats, h.gen.Config().OutputPath))
}

func (h *Handler) ValidateSetup(c *gin.Context) {
	c.JSON(http.StatusOK, h.gen.ValidateSetup())
}

func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.gen.Config())
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var update config.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid config data"})
		return
	}

	if err := h.gen.UpdateConfig(update); err != nil {
		status := http.StatusInternalServerError
		if errhandler.IsKind(err, errhandler.KindConfig) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.gen.Config())
}

// ReloadConfig re-reads the configuration file. Flag overrides given on the
// command line are lost.
func (h *Handler) ReloadConfig(c *gin.Context) {
	m := h.gen.ConfigManager()
	if err := m.ReloadConfig(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Failed to reload config", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, h.gen.Config())
}

func (h *Handler) SaveConfig(c *gin.Context) {
	m := h.gen.ConfigManager()
	if err := m.SaveConfig(); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save config", Details: []string{err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configFile": m.Path()})
}

func (h *Handler) GetRouteConfig(c *gin.Context) {
	route := c.Query("route")
	if route == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Route is required"})
		return
	}
	c.JSON(http.StatusOK, h.gen.ConfigManager().RouteConfig(route))
}

func (h *Handler) SetRouteConfig(c *gin.Context) {
	var req routeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid route config data"})
		return
	}

	m := h.gen.ConfigManager()
	if err := m.SetRouteConfig(req.Route, req.RouteOverride); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, m.RouteConfig(req.Route))
}

func (h *Handler) AddExcludePath(c *gin.Context) {
	var req excludeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !strings.HasPrefix(req.Path, "/") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Exclude path must start with /"})
		return
	}

	h.gen.ConfigManager().AddExcludePath(req.Path)
	c.JSON(http.StatusOK, gin.H{"excludePaths": h.gen.Config().ExcludePaths})
}

func (h *Handler) RemoveExcludePath(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Path is required"})
		return
	}

	h.gen.ConfigManager().RemoveExcludePath(path)
	c.JSON(http.StatusOK, gin.H{"excludePaths": h.gen.Config().ExcludePaths})
}

func (h *Handler) ListRuns(c *gin.Context) {
	if !h.historyEnabled(c) {
		return
	}

	page, limit := getPaginationParams(c)
	offset := (page - 1) * limit

	runs, err := h.store.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch runs"})
		return
	}
	if runs == nil {
		runs = []*models.GenerationRun{}
	}

	c.JSON(http.StatusOK, PaginationResponse{
		Data:  runs,
		Page:  page,
		Limit: limit,
	})
}

func (h *Handler) GetRun(c *gin.Context) {
	if !h.historyEnabled(c) {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid run ID"})
		return
	}

	run, err := h.store.GetRun(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch run"})
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Run not found"})
		return
	}

	c.JSON(http.StatusOK, run)
}

func (h *Handler) historyEnabled(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Run history is not enabled"})
		return false
	}
	return true
}

func (h *Handler) generationResponse(stats models.Stats, outputPath string) GenerationResponse {
	warnings := h.gen.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	return GenerationResponse{
		Stats:      stats,
		OutputPath: outputPath,
		Summary:    h.gen.ErrorSummary(),
		Warnings:   warnings,
	}
}

func (h *Handler) errorDetails() []string {
	var details []string
	for _, e := range h.gen.Errors() {
		details = append(details, e.Error())
	}
	return details
}

// Utility functions
func getPaginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	return page, limit
}
