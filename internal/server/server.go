package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cadencehq/cadence/internal/config"
	"github.com/cadencehq/cadence/internal/service"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	PipelineService *service.PipelineService
	Scheduler       *service.Scheduler
	StatsUpdater    *service.StatsUpdater
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	pipelineService, err := service.NewPipelineService(cfg, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline service: %w", err)
	}
	store := service.NewStore(db)
	scheduler := service.NewScheduler(&cfg.Scheduler, logger, pipelineService, store)
	statsUpdater, err := service.NewStatsUpdater(&cfg.Stats, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stats updater: %w", err)
	}

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:          cfg,
		DB:              db,
		Router:          router,
		Logger:          logger,
		PipelineService: pipelineService,
		Scheduler:       scheduler,
		StatsUpdater:    statsUpdater,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("/:id/generate", s.handleGenerate)
			campaigns.GET("/:id/plan", s.handleGetPlan)
			campaigns.GET("/:id/progress", s.handleGetProgress)
			campaigns.POST("/:id/cancel", s.handleCancel)
			campaigns.POST("/:id/regenerate", s.handleRegeneratePlan)
			campaigns.POST("/:id/slots/:slotID/regenerate", s.handleRegenerateSlot)
		}
	}
}

func (s *Server) handleGenerate(c *gin.Context) {
	campaignID := c.Param("id")

	runID, err := s.PipelineService.Generate(c.Request.Context(), campaignID)
	if err != nil {
		s.Logger.Error("Failed to start generation",
			zap.String("campaign_id", campaignID),
			zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

func (s *Server) handleGetPlan(c *gin.Context) {
	campaignID := c.Param("id")

	plan, err := s.PipelineService.Plan(campaignID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	failed := make([]gin.H, 0, len(plan.FailedSlots))
	for _, se := range plan.FailedSlots {
		failed = append(failed, gin.H{
			"slot_id": se.SlotID,
			"message": se.Message,
			"timeout": se.Timeout,
		})
	}

	resp := gin.H{
		"campaign_id":  plan.CampaignID,
		"state":        plan.State,
		"slots":        plan.Slots,
		"descriptions": plan.Descriptions,
		"results":      plan.Results,
		"failed_slots": failed,
	}
	if plan.Report != nil {
		resp["report"] = plan.Report
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetProgress(c *gin.Context) {
	campaignID := c.Param("id")

	latest := 0
	if raw := c.Query("latest"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "latest must be an integer"})
			return
		}
		latest = n
	}

	notifications, counters, err := s.PipelineService.Progress(campaignID, latest)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"counters":      counters,
	})
}

func (s *Server) handleCancel(c *gin.Context) {
	campaignID := c.Param("id")

	if err := s.PipelineService.Cancel(campaignID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "generation cancelled"})
}

func (s *Server) handleRegeneratePlan(c *gin.Context) {
	campaignID := c.Param("id")

	runID, err := s.PipelineService.RegeneratePlan(c.Request.Context(), campaignID)
	if err != nil {
		s.Logger.Error("Failed to regenerate plan",
			zap.String("campaign_id", campaignID),
			zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

func (s *Server) handleRegenerateSlot(c *gin.Context) {
	campaignID := c.Param("id")
	slotID := c.Param("slotID")

	if err := s.PipelineService.RegenerateSlot(c.Request.Context(), campaignID, slotID); err != nil {
		s.Logger.Error("Failed to regenerate slot",
			zap.String("campaign_id", campaignID),
			zap.String("slot_id", slotID),
			zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "slot regenerated"})
}

func (s *Server) Start(ctx context.Context) error {
	// Start background services
	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	s.StatsUpdater.Start(ctx)

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop background services first
	s.Scheduler.Stop()
	s.StatsUpdater.Stop()

	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
