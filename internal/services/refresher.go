package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/courtside/internal/store"
)

// RefreshService re-runs the aggregation pipeline for every known player
// on a schedule, and sweeps photo assets daily.
type RefreshService struct {
	players   *store.PlayerStore
	pipeline  *PipelineService
	photos    *PhotoService
	logger    *logrus.Logger
	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
	interval  time.Duration
}

func NewRefreshService(
	players *store.PlayerStore,
	pipeline *PipelineService,
	photos *PhotoService,
	logger *logrus.Logger,
	interval time.Duration,
) *RefreshService {
	return &RefreshService{
		players:  players,
		pipeline: pipeline,
		photos:   photos,
		logger:   logger,
		cron:     cron.New(),
		interval: interval,
	}
}

// Start schedules the refresh jobs.
func (s *RefreshService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("refresh service is already running")
	}

	schedule := fmt.Sprintf("@every %s", s.interval.String())
	if _, err := s.cron.AddFunc(schedule, s.refreshAllStats); err != nil {
		return fmt.Errorf("failed to schedule stats refresh: %w", err)
	}

	// Photo CDN content changes rarely; once a day at 6 AM is enough.
	if _, err := s.cron.AddFunc("0 6 * * *", s.refreshAllPhotos); err != nil {
		return fmt.Errorf("failed to schedule photo refresh: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Refresh service started")
	return nil
}

// Stop halts the schedule, waiting for in-flight jobs to finish.
func (s *RefreshService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Refresh service stopped")
}

// RefreshAllStats forces a pipeline pass for every player. Exposed for the
// manual refresh endpoint; the cron job uses the same path.
func (s *RefreshService) RefreshAllStats(ctx context.Context) (int, error) {
	players, err := s.players.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("list players: %w", err)
	}

	refreshed := 0
	for _, player := range players {
		_, err := s.pipeline.GetPlayerStats(ctx, StatsRequest{
			PlayerID:    player.PlayerID,
			DisplayName: player.DisplayName,
			Force:       true,
		})
		if err != nil {
			s.logger.Warnf("scheduled refresh for player %s failed: %v", player.PlayerID, err)
			continue
		}
		refreshed++
	}

	s.logger.Infof("Stats refresh complete: %d/%d players", refreshed, len(players))
	return refreshed, nil
}

func (s *RefreshService) refreshAllStats() {
	s.logger.Info("Starting scheduled stats refresh")
	if _, err := s.RefreshAllStats(context.Background()); err != nil {
		s.logger.Errorf("Scheduled stats refresh failed: %v", err)
	}
}

func (s *RefreshService) refreshAllPhotos() {
	s.logger.Info("Starting scheduled photo refresh")
	if _, err := s.photos.RefreshAll(context.Background()); err != nil {
		s.logger.Errorf("Scheduled photo refresh failed: %v", err)
	}
}

// Status reports scheduler state for the readiness endpoint.
func (s *RefreshService) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	nextRuns := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		nextRuns = append(nextRuns, entry.Next)
	}

	return map[string]interface{}{
		"is_running":       s.isRunning,
		"refresh_interval": s.interval.String(),
		"next_runs":        nextRuns,
		"cron_jobs":        len(entries),
	}
}
