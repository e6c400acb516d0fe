package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// ReportServer
// -----------------------------------------------------------------------------

type ReportServer struct {
	Config *models.MConfig
	Runner interfaces.IAnalysisRunner
	Logger *logger.Logger
	engine *gin.Engine
	http   *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MServerMessage
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}

	// Run state
	stateMutex   sync.RWMutex
	running      bool
	latestEvent  *models.MRunEvent
	latestReport *models.MAnalysisReport
	lastError    string

	runCtx    context.Context
	cancelRun context.CancelFunc
	runs      sync.WaitGroup
	stopOnce  sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewReportServer(cfg *models.MConfig, runner interfaces.IAnalysisRunner, logger *logger.Logger) *ReportServer {
	if !strings.EqualFold(cfg.LogLevel, "DEBUG") && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &ReportServer{
		Config:     cfg,
		Runner:     runner,
		Logger:     logger,
		engine:     gin.Default(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan *models.MServerMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		runCtx:     ctx,
		cancelRun:  cancel,
	}

	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ReportServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/config", s.getConfig)
	api.GET("/reports", s.listReports)
	api.GET("/reports/:name", s.getReport)
	api.POST("/runs", s.startRun)
	api.GET("/runs/latest", s.getLatestRun)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *ReportServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves until Stop is called.
func (s *ReportServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting report server on %s", addr)

	go s.handleWebsockets()

	srv := &http.Server{Addr: addr, Handler: s.engine}
	s.stateMutex.Lock()
	s.http = srv
	s.stateMutex.Unlock()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Stop cancels a running analysis, waits for it and shuts the listener down.
func (s *ReportServer) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.cancelRun()
		s.runs.Wait()
		close(s.quit)

		s.stateMutex.RLock()
		srv := s.http
		s.stateMutex.RUnlock()
		if srv != nil {
			err = srv.Shutdown(ctx)
		}
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *ReportServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	var latest int64
	if s.latestEvent != nil {
		latest = s.latestEvent.Timestamp
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"connections":   len(s.clients),
		"running":       s.running,
		"latest_update": latest,
	})
}

// -----------------------------------------------------------------------------

func (s *ReportServer) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"exchange":           s.Config.Exchange.Name,
		"stake_currency":     s.Config.StakeCurrency,
		"timeframe":          s.Config.Timeframe,
		"pairs":              s.Config.Pairs,
		"timerange":          s.Config.Timerange,
		"dataformat_ohlcv":   s.Config.DataFormatOHLCV,
		"join_mode":          s.Config.JoinMode,
		"reference_currency": s.Config.Analysis.ReferenceCurrency,
		"top_n":              s.Config.Analysis.TopN,
	})
}

// -----------------------------------------------------------------------------

func (s *ReportServer) listReports(c *gin.Context) {
	artifacts, err := listArtifacts(s.Config.DataDir)
	if err != nil {
		s.Logger.Error("Failed to list artifacts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list artifacts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifacts": artifacts})
}

// -----------------------------------------------------------------------------

func (s *ReportServer) getReport(c *gin.Context) {
	name := c.Param("name")
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid artifact name"})
		return
	}
	if artifactKind(name) == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown artifact"})
		return
	}

	path := filepath.Join(s.Config.DataDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return
	}
	c.File(path)
}

// -----------------------------------------------------------------------------

func (s *ReportServer) startRun(c *gin.Context) {
	s.stateMutex.Lock()
	if s.running {
		s.stateMutex.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a run is already in progress"})
		return
	}
	s.running = true
	s.stateMutex.Unlock()

	runID := uuid.NewString()
	s.runs.Add(1)
	go s.runAnalysis(runID)

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

func (s *ReportServer) runAnalysis(runID string) {
	defer s.runs.Done()

	s.Logger.Info("Starting analysis run %s", runID)
	start := time.Now()
	s.Runner.SetRunID(runID)
	report, err := s.Runner.Execute(s.runCtx)

	s.stateMutex.Lock()
	s.running = false
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		s.latestReport = report
	}
	s.stateMutex.Unlock()

	if err != nil {
		s.Logger.Error("Analysis run %s failed: %v", runID, err)
		return
	}
	s.Logger.Info("Analysis run %s finished in %s", runID, time.Since(start).Round(time.Millisecond))
	s.push(&models.MServerMessage{Type: "REPORT", Report: report})
}

// -----------------------------------------------------------------------------

func (s *ReportServer) getLatestRun(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	if s.latestReport == nil && s.lastError == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run finished yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"running":    s.running,
		"report":     s.latestReport,
		"last_error": s.lastError,
		"event":      s.latestEvent,
	})
}
