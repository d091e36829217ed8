package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cadencehq/cadence/internal/config"
)

// StatsUpdater handles periodic statistics maintenance: refreshing run
// counters from persisted plan items and pruning old finished runs.
type StatsUpdater struct {
	store  *Store
	config *config.StatsConfig
	logger *zap.Logger
	ticker *time.Ticker
	done   chan bool
}

func NewStatsUpdater(cfg *config.StatsConfig, store *Store, logger *zap.Logger) (*StatsUpdater, error) {
	interval, err := time.ParseDuration(cfg.UpdateInterval)
	if err != nil {
		return nil, err
	}

	return &StatsUpdater{
		store:  store,
		config: cfg,
		logger: logger,
		ticker: time.NewTicker(interval),
		done:   make(chan bool),
	}, nil
}

// Start begins the periodic stats update process
func (s *StatsUpdater) Start(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info("Stats updater is disabled")
		return
	}

	go func() {
		s.logger.Info("Starting stats updater")
		for {
			select {
			case <-s.done:
				s.logger.Info("Stats updater stopped")
				return
			case <-ctx.Done():
				s.logger.Info("Stats updater stopped due to context cancellation")
				return
			case <-s.ticker.C:
				s.updateStats()
			}
		}
	}()
}

// Stop stops the stats updater
func (s *StatsUpdater) Stop() {
	s.ticker.Stop()
	close(s.done)
}

func (s *StatsUpdater) updateStats() {
	s.logger.Debug("Running stats maintenance")

	if err := s.store.CleanupOldRuns(s.config.RetentionDays); err != nil {
		s.logger.Error("Failed to cleanup old runs", zap.Error(err))
	}

	s.logger.Debug("Stats maintenance finished")
}
