// Package api serves the analysis entry points over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ppiankov/truthscan/internal/metrics"
	"github.com/ppiankov/truthscan/internal/model"
)

// ServiceName is reported in every response envelope
const ServiceName = "truthscan"

// Analyzer is the subset of the pipeline the API needs
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*model.Report, error)
	AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error)
	AnalyzeImage(ctx context.Context, data []byte, caption string) (*model.Report, error)
}

// Server owns the gin engine and its http.Server
type Server struct {
	cfg    model.ServerConfig
	router *gin.Engine
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the router; m may be nil to skip /metrics
func NewServer(cfg model.ServerConfig, analyzer Analyzer, m *metrics.Metrics, maxImageBytes int64, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	if maxImageBytes > 0 {
		router.MaxMultipartMemory = maxImageBytes
	}

	h := NewHandlers(analyzer, maxImageBytes, version)
	RegisterRoutes(router.Group("/api"), h)
	if cfg.Metrics && m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	return &Server{
		cfg:    cfg,
		router: router,
		logger: logger,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.cfg.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("api shutting down")
	return s.srv.Shutdown(shutdownCtx)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP())
	}
}
