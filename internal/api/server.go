package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/romangod6/sitemap-gen/internal/sitemap"
	"github.com/romangod6/sitemap-gen/internal/storage"
	"github.com/romangod6/sitemap-gen/internal/utils"
)

type Server struct {
	router *gin.Engine
	port   int
	server *http.Server
}

// NewServer wires the sitemap routes. store may be nil, in which case the run
// history endpoints answer 503.
func NewServer(port int, gen *sitemap.Generator, store storage.Store, logger *utils.Logger) *Server {
	router := gin.Default()

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler := NewHandler(gen, store, logger)

	router.GET("/sitemap.xml", handler.ServeSitemap)

	api := router.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		sm := api.Group("/sitemap")
		{
			sm.GET("/stats", handler.GetStats)
			sm.POST("/generate", handler.Generate)
			sm.GET("/validate", handler.ValidateSetup)
		}

		cfg := api.Group("/config")
		{
			cfg.GET("", handler.GetConfig)
			cfg.PATCH("", handler.UpdateConfig)
			cfg.POST("/reload", handler.ReloadConfig)
			cfg.POST("/save", handler.SaveConfig)
			cfg.GET("/routes", handler.GetRouteConfig)
			cfg.PUT("/routes", handler.SetRouteConfig)
			cfg.POST("/exclude", handler.AddExcludePath)
			cfg.DELETE("/exclude", handler.RemoveExcludePath)
		}

		runs := api.Group("/runs")
		{
			runs.GET("", handler.ListRuns)
			runs.GET("/:id", handler.GetRun)
		}
	}

	return &Server{
		router: router,
		port:   port,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. After Shutdown it returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
