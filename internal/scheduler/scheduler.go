package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/robfig/cron/v3"
)

// Job is a unit of background work
type Job func(ctx context.Context) error

// Scheduler runs housekeeping jobs on cron schedules
// A job that is still running when its next tick arrives is skipped
type Scheduler struct {
	cron       *cron.Cron
	logger     *logger.Logger
	jobTimeout time.Duration
	activeJobs sync.WaitGroup

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// New creates a scheduler whose jobs are canceled after jobTimeout
func New(jobTimeout time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:           cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:         log.WithComponent("Scheduler"),
		jobTimeout:     jobTimeout,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
}

// Add schedules job; spec is a cron expression or a descriptor such as "@every 1m"
func (s *Scheduler) Add(spec, name string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, job)); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops scheduling, cancels running jobs and waits for them (up to a minute)
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.activeJobs.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(time.Minute):
		s.logger.Warn().Msg("Timeout waiting for jobs to complete")
	}
	s.logger.Info().Msg("Scheduler stopped")
}

// wrap adds the timeout, logging and panic recovery around a job
func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		s.activeJobs.Add(1)
		defer s.activeJobs.Done()

		ctx, cancel := context.WithTimeout(s.shutdownCtx, s.jobTimeout)
		defer cancel()

		start := time.Now()
		log := s.logger.With().Str("job", name).Logger()

		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Job panicked")
			}
		}()

		if err := job(ctx); err != nil {
			log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Job failed")
			return
		}
		log.Debug().Dur("duration", time.Since(start)).Msg("Job completed")
	}
}
