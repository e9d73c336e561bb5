package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/config"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/importer"
	"github.com/GeorgeMcIntyre-Web/SimPilot-sub010/internal/registry"
)

// Server is the HTTP boundary over the ingestion core. It only moves
// data in and out; classification and resolution live below it.
type Server struct {
	router      *gin.Engine
	registry    *registry.Registry
	coordinator *importer.Coordinator
	cfg         *config.AppConfig
	log         *zap.Logger
}

// NewServer wires the HTTP surface over an already-built registry and
// coordinator.
func NewServer(cfg *config.AppConfig, reg *registry.Registry, coord *importer.Coordinator, log *zap.Logger) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		router:      gin.Default(),
		registry:    reg,
		coordinator: coord,
		cfg:         cfg,
		log:         log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := s.router.Group("/api")
	{
		api.GET("/status", s.handleStatus)

		api.POST("/import", s.handleImport)
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)

		api.GET("/entities", s.handleListEntities)
		api.GET("/entities/:uid", s.handleGetEntity)
		api.GET("/entities/:uid/audit", s.handleEntityAudit)
		api.POST("/entities/:uid/activate", s.handleActivate)
		api.POST("/entities/:uid/deactivate", s.handleDeactivate)
		api.POST("/entities/:uid/labels", s.handleOverrideLabel)
		api.POST("/entities/:uid/attributes", s.handleUpdateAttributes)
		api.POST("/entities/:uid/delete", s.handleDeleteEntity)

		api.GET("/aliases", s.handleListAliases)
		api.POST("/aliases", s.handleAddAlias)

		api.GET("/audit", s.handleQueryAudit)

		api.GET("/review", s.handleListReview)
		api.POST("/review/:id/link", s.handleLinkReview)
		api.POST("/review/:id/create", s.handleCreateReview)

		api.GET("/stale", s.handleListStale)
		api.POST("/stale/deactivate", s.handleDeactivateStale)
	}
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
