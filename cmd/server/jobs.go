package main

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/Beastie7/FlashLearn/internal/config"
	"github.com/Beastie7/FlashLearn/internal/service"
)

// jobScheduler runs periodic maintenance tasks. Currently its only job
// is evicting study sessions that have been idle past the configured TTL.
type jobScheduler struct {
	scheduler    *gocron.Scheduler
	studyService service.StudyService
	sessionTTL   time.Duration
	logger       *slog.Logger
}

func newJobScheduler(
	studyService service.StudyService,
	cfg config.StudyConfig,
	logger *slog.Logger,
) *jobScheduler {
	return &jobScheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		studyService: studyService,
		sessionTTL:   time.Duration(cfg.SessionTTLMinutes) * time.Minute,
		logger:       logger.With(slog.String("component", "job_scheduler")),
	}
}

// Start registers the jobs and begins running them in the background.
func (j *jobScheduler) Start() {
	if _, err := j.scheduler.Every(1).Minute().Do(j.evictStaleSessions); err != nil {
		j.logger.Error("failed to schedule session eviction job", "error", err)
		return
	}
	j.scheduler.StartAsync()
	j.logger.Info("background jobs started", "session_ttl", j.sessionTTL)
}

// Stop terminates all scheduled jobs, waiting for a running job to finish.
func (j *jobScheduler) Stop() {
	j.scheduler.Stop()
	j.logger.Info("background jobs stopped")
}

func (j *jobScheduler) evictStaleSessions() {
	if evicted := j.studyService.EvictStale(j.sessionTTL); evicted > 0 {
		j.logger.Info("evicted stale study sessions", "count", evicted)
	}
}
