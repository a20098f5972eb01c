// Package server exposes the canvas adapter, history, curve editing and
// job submission over HTTP for the browser front-end.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tordrt/schemadesigner/internal/curve"
	"github.com/tordrt/schemadesigner/internal/generator"
	"github.com/tordrt/schemadesigner/internal/store"
	"github.com/tordrt/schemadesigner/internal/view"
)

// Config holds the HTTP settings
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Server wires the model components to a gin router
type Server struct {
	store   *store.Store
	engine  *curve.Engine
	adapter *view.Adapter
	jobs    *JobTracker
	logger  *slog.Logger
	cfg     Config
}

// New creates a server over s. gen may be nil, in which case job routes
// answer 503.
func New(cfg Config, s *store.Store, e *curve.Engine, gen *generator.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		store:   s,
		engine:  e,
		adapter: view.NewAdapter(s, e, logger),
		logger:  logger,
		cfg:     cfg,
	}
	if gen != nil {
		srv.jobs = NewJobTracker(gen, logger)
	}
	return srv
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	if len(s.cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	RegisterRoutes(router, s)
	return router
}

// HTTPServer returns the http.Server serving Router on the configured address
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Shutdown stops following remote jobs. Call it after the http.Server has
// been shut down.
func (s *Server) Shutdown(context.Context) {
	if s.jobs != nil {
		s.jobs.Close()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("took", time.Since(start)),
		)
	}
}
