package jobs

import (
	"fmt"
	"time"

	"wingit/score/internal/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenCleanupJob garbage-collects run tokens on a schedule: unused
// tokens past their validity window and consumed tokens past the
// retention window. The Run row keeps the token value, so nothing
// auditable is lost.
type TokenCleanupJob struct {
	tokens    *repositories.TokenRepository
	logger    *zap.Logger
	schedule  string
	retention time.Duration
	cron      *cron.Cron
}

func NewTokenCleanupJob(tokens *repositories.TokenRepository, logger *zap.Logger, schedule string, retention time.Duration) *TokenCleanupJob {
	return &TokenCleanupJob{
		tokens:    tokens,
		logger:    logger,
		schedule:  schedule,
		retention: retention,
		cron:      cron.New(),
	}
}

// Start registers and starts the scheduled cleanup.
func (j *TokenCleanupJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		if err := j.RunOnce(); err != nil {
			j.logger.Error("token cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule token cleanup: %w", err)
	}
	j.cron.Start()
	j.logger.Info("token cleanup scheduled", zap.String("schedule", j.schedule))
	return nil
}

// Stop halts the scheduler.
func (j *TokenCleanupJob) Stop() {
	if j.cron != nil {
		j.cron.Stop()
	}
}

// RunOnce performs a single cleanup pass.
func (j *TokenCleanupJob) RunOnce() error {
	now := time.Now()

	expired, err := j.tokens.DeleteExpired(now)
	if err != nil {
		return fmt.Errorf("delete expired tokens: %w", err)
	}

	used, err := j.tokens.DeleteUsedBefore(now.Add(-j.retention))
	if err != nil {
		return fmt.Errorf("delete retained tokens: %w", err)
	}

	if expired > 0 || used > 0 {
		j.logger.Info("token cleanup pass",
			zap.Int64("expiredDeleted", expired),
			zap.Int64("usedDeleted", used))
	}
	return nil
}
