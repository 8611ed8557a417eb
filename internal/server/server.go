// Package server exposes run progress and encode history over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/backmassage/shrinkwebm/internal/history"
	"github.com/backmassage/shrinkwebm/internal/pipeline"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	shutdownTimeout     = 5 * time.Second
)

// StatsSource supplies live counters. *pipeline.Runner implements it.
type StatsSource interface {
	Stats() pipeline.RunStats
	RunID() string
}

// HistorySource supplies recent records and per-run totals.
// *history.Store implements it.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.Record, error)
	CountByStatus(ctx context.Context, runID string) (map[history.Status]int64, error)
}

// Server is the status HTTP server.
type Server struct {
	addr   string
	engine *gin.Engine
	log    hclog.Logger
	srv    *http.Server
}

// New builds the router. hist may be nil, in which case /api/history
// answers 404 and /api/stats carries no recorded totals.
func New(addr string, stats StatsSource, hist HistorySource, log hclog.Logger) *Server {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	h := &handlers{stats: stats, hist: hist, log: log}
	r.GET("/healthz", h.health)
	api := r.Group("/api")
	{
		api.GET("/stats", h.getStats)
		api.GET("/history", h.getHistory)
	}

	return &Server{addr: addr, engine: r, log: log}
}

// Handler returns the router for use with httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()
	s.log.Info("status server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("status server stopped")
	return nil
}

type handlers struct {
	stats StatsSource
	hist  HistorySource
	log   hclog.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) getStats(c *gin.Context) {
	st := h.stats.Stats()
	runID := h.stats.RunID()
	resp := gin.H{
		"run_id":      runID,
		"stats":       st,
		"space_saved": st.SpaceSaved(),
	}
	if h.hist != nil {
		counts, err := h.hist.CountByStatus(c.Request.Context(), runID)
		if err != nil {
			h.log.Warn("history count failed", "run_id", runID, "error", err)
		} else {
			resp["recorded"] = counts
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) getHistory(c *gin.Context) {
	if h.hist == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history store not configured"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be an integer between 1 and " + strconv.Itoa(maxHistoryLimit),
			})
			return
		}
		limit = n
	}

	records, err := h.hist.Recent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("history query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// requestLogger logs each request at debug level.
func requestLogger(log hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).String())
	}
}
