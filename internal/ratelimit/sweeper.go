package ratelimit

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs the sweep once a minute
const DefaultSweepSchedule = "@every 1m"

// Sweeper periodically drops expired windows from a Limiter
type Sweeper struct {
	limiter *Limiter
	cron    *cron.Cron
	logger  *zap.Logger
	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper for the limiter using a cron schedule
// such as "@every 1m" or "*/5 * * * *"
func NewSweeper(limiter *Limiter, schedule string, logger *zap.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	s := &Sweeper{
		limiter: limiter,
		cron:    cron.New(),
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start starts the sweep schedule in the background
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("Rate limit sweeper started")
}

// Stop stops the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info("Rate limit sweeper stopped")
}

func (s *Sweeper) sweep() {
	removed := s.limiter.Sweep()
	if removed > 0 {
		s.logger.Debug("Swept expired rate limit windows",
			zap.Int("removed", removed),
			zap.Int("remaining", s.limiter.Len()),
		)
	}
}
