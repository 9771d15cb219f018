package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/admarket/chat-api/auth"
	"github.com/admarket/chat-api/ratelimit"
)

// Scheduler handles the periodic background jobs: sweeping expired rate
// limit windows and purging expired credential revocations. Both sweeps
// are memory management only; correctness never waits on them.
type Scheduler struct {
	cron        *cron.Cron
	Limiter     *ratelimit.Limiter
	Revocations *auth.RevocationStore
}

// NewScheduler creates a new scheduler instance
func NewScheduler(limiter *ratelimit.Limiter, revocations *auth.RevocationStore) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		Limiter:     limiter,
		Revocations: revocations,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Sweep expired rate limit counters every minute
	_, err := s.cron.AddFunc("* * * * *", s.sweepRateLimits)
	if err != nil {
		zap.S().Errorw("failed to register rate limit sweep job", "error", err)
	}

	// Purge expired revocation entries every five minutes
	_, err = s.cron.AddFunc("*/5 * * * *", s.purgeRevocations)
	if err != nil {
		zap.S().Errorw("failed to register revocation purge job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("chat maintenance scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("chat maintenance scheduler stopped")
}

func (s *Scheduler) sweepRateLimits() {
	before := s.Limiter.Size()
	s.Limiter.Sweep()
	zap.S().Debugw("swept rate limit counters",
		"before", before,
		"after", s.Limiter.Size(),
	)
}

func (s *Scheduler) purgeRevocations() {
	before := s.Revocations.Len()
	s.Revocations.Purge()
	zap.S().Debugw("purged revocation entries",
		"before", before,
		"after", s.Revocations.Len(),
	)
}
