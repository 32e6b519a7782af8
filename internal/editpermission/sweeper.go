package editpermission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Expirer is the part of the service the sweeper drives.
type Expirer interface {
	ExpireSweep(ctx context.Context) (int64, error)
}

// Sweeper runs ExpireSweep on a cron schedule. Overlapping runs are skipped;
// the sweep itself tolerates overlap but there is no point stacking them.
type Sweeper struct {
	expirer  Expirer
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger

	mu   sync.Mutex
	base context.Context
}

func NewSweeper(expirer Expirer, schedule string, logger *slog.Logger) (*Sweeper, error) {
	s := &Sweeper{
		expirer:  expirer,
		schedule: schedule,
		timeout:  time.Minute,
		logger:   logger,
		base:     context.Background(),
	}

	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce sweeps immediately.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.expirer.ExpireSweep(ctx)
}

// Run sweeps once at start, then on schedule until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()

	s.logger.Info("edit permission sweeper started", "schedule", s.schedule)
	s.tick()
	s.cron.Start()

	<-ctx.Done()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(s.timeout):
		s.logger.Warn("edit permission sweeper stop timed out")
	}
	s.logger.Info("edit permission sweeper stopped")
	return nil
}

// tick sweeps under the context handed to Run, so cancelling Run aborts a
// sweep in flight.
func (s *Sweeper) tick() {
	s.mu.Lock()
	ctx := s.base
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	count, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("scheduled edit permission sweep failed", "error", err)
		return
	}
	s.logger.Debug("scheduled edit permission sweep finished", "expired", count)
}
