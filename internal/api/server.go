package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/redsunink/veliankeeper/internal/catalog"
	"github.com/redsunink/veliankeeper/internal/repository/sqlite"
	"github.com/redsunink/veliankeeper/internal/tasks"
)

// Server is the HTTP command surface. Every route maps onto one task
// lifecycle or catalog operation; the handlers do input shaping only and
// leave validation to the services.
type Server struct {
	router  *gin.Engine
	tasks   tasks.Service
	catalog catalog.Service
	repo    sqlite.Repository
	logger  *slog.Logger
}

// NewServer creates a new command server and wires its routes.
// requestTimeout bounds each request's context; zero disables the bound.
func NewServer(taskSvc tasks.Service, catalogSvc catalog.Service, repo sqlite.Repository, requestTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))
	if requestTimeout > 0 {
		router.Use(RequestTimeout(requestTimeout))
	}

	s := &Server{
		router:  router,
		tasks:   taskSvc,
		catalog: catalogSvc,
		repo:    repo,
		logger:  logger,
	}

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/:id", s.handleGetTask)
		api.POST("/tasks/:id/actions", s.handleTaskAction)
		api.DELETE("/tasks", s.handlePurgeTasks)

		api.POST("/custom-tasks", s.handleCreateCustomTask)
		api.GET("/custom-tasks/:id", s.handleGetCustomTask)
		api.POST("/custom-tasks/:id/actions", s.handleCustomTaskAction)
		api.DELETE("/custom-tasks", s.handlePurgeCustomTasks)

		api.POST("/items", s.handleAddItem)
		api.GET("/items/:name", s.handleGetItem)
		api.PUT("/items/:id", s.handleUpdateItem)
		api.DELETE("/items/:name", s.handleDeleteItem)

		api.POST("/facilities", s.handleAddFacility)
		api.GET("/facilities/:name", s.handleGetFacility)

		api.POST("/stockpiles", s.handleAddStockpile)
		api.GET("/stockpiles/:name", s.handleGetStockpile)
		api.DELETE("/stockpiles", s.handlePurgeStockpiles)
	}

	return s
}

// Run starts the command server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
