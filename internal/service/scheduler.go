package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cadencehq/cadence/internal/config"
	"github.com/cadencehq/cadence/internal/models"
)

const queuedBatchSize = 10

// Scheduler periodically picks up queued campaigns and starts their
// generation runs.
type Scheduler struct {
	config   *config.SchedulerConfig
	logger   *zap.Logger
	pipeline *PipelineService
	store    *Store
	ticker   *time.Ticker
	stopCh   chan struct{}
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zap.Logger, pipeline *PipelineService, store *Store) *Scheduler {
	return &Scheduler{
		config:   cfg,
		logger:   logger,
		pipeline: pipeline,
		store:    store,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	interval, err := time.ParseDuration(s.config.PollInterval)
	if err != nil {
		s.logger.Error("Invalid poll interval", zap.String("interval", s.config.PollInterval), zap.Error(err))
		return err
	}

	s.logger.Info("Starting scheduler", zap.String("poll_interval", s.config.PollInterval))

	s.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runQueued(ctx)
			case <-s.stopCh:
				s.logger.Info("Scheduler stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Scheduler context cancelled")
				return
			}
		}
	}()

	return nil
}

func (s *Scheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.logger.Info("Scheduler shutdown completed")
}

func (s *Scheduler) runQueued(ctx context.Context) {
	campaigns, err := s.store.ListQueuedCampaigns(queuedBatchSize)
	if err != nil {
		s.logger.Error("Failed to list queued campaigns", zap.Error(err))
		return
	}

	for _, campaign := range campaigns {
		start := time.Now()
		runID, err := s.pipeline.Generate(ctx, campaign.ID)
		if err != nil {
			s.logger.Error("Failed to start queued campaign",
				zap.String("campaign_id", campaign.ID),
				zap.Error(err))
			if err := s.store.UpdateCampaignStatus(campaign.ID, models.CampaignStatusFailed); err != nil {
				s.logger.Error("Failed to update campaign status", zap.Error(err))
			}
			continue
		}

		s.logger.Info("Queued campaign started",
			zap.String("campaign_id", campaign.ID),
			zap.String("run_id", runID),
			zap.Duration("startup", time.Since(start)))
	}
}
