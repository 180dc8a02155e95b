// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultJobTimeout = 5 * time.Minute

// Job is a named unit of housekeeping work
type Job struct {
	Name     string
	Spec     string // standard 5-field cron expression or @every/@hourly descriptor
	Timeout  time.Duration
	Run      func(ctx context.Context) error
	runCount int
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewScheduler creates a new job scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:   c,
		logger: logger,
		jobs:   make(map[string]*Job),
	}
}

// Add registers a job. Names must be unique.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run func")
	}
	if job.Timeout <= 0 {
		job.Timeout = defaultJobTimeout
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	j := &job
	if _, err := s.cron.AddFunc(job.Spec, func() { _ = s.execute(j) }); err != nil {
		return fmt.Errorf("job %q: %w", job.Name, err)
	}
	s.jobs[job.Name] = j
	return nil
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
}

// Stop gracefully stops all scheduled jobs. The returned context is done
// once running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs a job synchronously outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	return s.execute(j)
}

// Runs reports how many times a job has executed.
func (s *Scheduler) Runs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[name]; ok {
		return j.runCount
	}
	return 0
}

func (s *Scheduler) execute(j *Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), j.Timeout)
	defer cancel()

	start := time.Now()
	err := j.Run(ctx)

	s.mu.Lock()
	j.runCount++
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("scheduled job failed",
			slog.String("job", j.Name),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err),
		)
		return err
	}
	s.logger.Debug("scheduled job completed",
		slog.String("job", j.Name),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
