// Package httpapi exposes the ops surface: report ingest, level inspection,
// health and manual monitor control.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"levelwatch/internal/health"
	"levelwatch/internal/logger"
	"levelwatch/internal/monitor"
	"levelwatch/internal/publish"
	"levelwatch/internal/store"
)

type Server struct {
	addr   string
	router *gin.Engine
}

type ServerConfig struct {
	Addr    string
	Publish *publish.Service
	Health  *health.Reporter
	Monitor *monitor.Monitor
	Storage store.Store
	JobName string
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Publish == nil || cfg.Storage == nil {
		return nil, errors.New("http server requires publish service and storage")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8087"
	}
	if cfg.JobName == "" {
		cfg.JobName = monitor.DefaultJobName
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{
		publish: cfg.Publish,
		health:  cfg.Health,
		monitor: cfg.Monitor,
		storage: cfg.Storage,
		job:     cfg.JobName,
	}
	api := router.Group("/api")
	{
		api.POST("/reports/preview", h.previewReport)
		api.POST("/reports/publish", h.publishReport)
		api.GET("/reports/latest", h.latestReport)
		api.GET("/levels", h.listLevels)
		api.GET("/health", h.healthReport)
		api.GET("/notifications", h.listNotifications)
		api.POST("/monitor/run", h.runMonitor)
		api.POST("/monitor/enabled", h.setMonitorEnabled)
	}
	return &Server{addr: cfg.Addr, router: router}, nil
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx cancels or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("http: listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}
