// Package scheduler fires periodic runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/orchestrator"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// parser accepts both five and six field expressions plus descriptors
// such as @daily or @every 6h.
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate reports whether spec is a usable schedule.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Scheduler runs a Job on a cron schedule. Firings that overlap a run in
// progress are skipped.
type Scheduler struct {
	logger *logging.Logger
	spec   string
	job    Job
	cron   *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	running bool
	entry   cron.EntryID
	fired   int
	skipped int
}

// New validates spec and returns a stopped scheduler.
func New(logger *logging.Logger, spec string, job Job) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler job is nil")
	}
	if err := Validate(spec); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Scheduler{
		logger: logger,
		spec:   spec,
		job:    job,
		cron:   cron.New(cron.WithParser(parser)),
	}, nil
}

// Start registers the job and starts the cron goroutine. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	s.ctx = ctx
	id, err := s.cron.AddFunc(s.spec, s.fire)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.spec, err)
	}
	s.entry = id
	s.cron.Start()
	s.running = true
	s.logger.Info("Scheduler started (%s), next run at %s", s.spec, s.nextLocked().Format(time.RFC3339))
	return nil
}

// Stop stops firing new runs and waits for a run in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Next returns the time of the next firing, or zero when stopped.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

func (s *Scheduler) nextLocked() time.Time {
	if !s.running && s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// Stats returns how many firings ran and how many were skipped as busy.
func (s *Scheduler) Stats() (fired, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired, s.skipped
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	err := s.job(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		s.skipped++
		s.logger.Skip("Scheduled run skipped: %v", err)
	case err != nil:
		s.fired++
		s.logger.Error("Scheduled run failed: %v", err)
	default:
		s.fired++
		s.logger.Debug("Scheduled run completed")
	}
}
