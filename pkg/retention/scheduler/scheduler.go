// Package scheduler runs the archive pipeline and the archive janitor on
// cron schedules. Only one job runs at a time; a job that fires while
// another is still running is skipped until its next tick.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/retainer/pkg/retention"
	"mercator-hq/retainer/pkg/telemetry/logging"
)

// Job names.
const (
	JobArchive = "archive"
	JobJanitor = "janitor"
)

// Job statuses reported to the JobRecorder.
const (
	JobSuccess = "success"
	JobFailed  = "error"
	JobSkipped = "skipped"
)

// ErrBusy is returned by RunNow when a job is already running.
var ErrBusy = errors.New("a retention job is already running")

// Archiver is the archive pipeline as seen by the scheduler.
type Archiver interface {
	ArchiveMessages(ctx context.Context) (*retention.Result, error)
}

// Janitor is the archive janitor as seen by the scheduler.
type Janitor interface {
	DeleteExpiredArchivedData(ctx context.Context) (*retention.Result, error)
}

// JobRecorder counts scheduled job outcomes.
type JobRecorder interface {
	RecordJob(job, status string)
}

// Config holds the cron expressions of both jobs. An empty expression
// disables that job.
type Config struct {
	ArchiveSchedule string
	JanitorSchedule string

	// Recorder receives the outcome of every scheduled run. Optional.
	Recorder JobRecorder
}

// Scheduler manages the scheduled retention jobs.
type Scheduler struct {
	jobs    map[string]func(context.Context) (*retention.Result, error)
	config  Config
	cron    *cron.Cron
	entries map[string]cron.EntryID
	mu      sync.Mutex
	busy    sync.Mutex
	logger  *slog.Logger
	running bool

	// stop is closed by Stop. watching is closed once the goroutine that
	// watches the Start context has returned.
	stop     chan struct{}
	watching chan struct{}
}

// New creates a scheduler. Either job may be nil to leave it out.
func New(archiver Archiver, janitor Janitor, config Config) *Scheduler {
	logger := slog.Default().With("component", "retention.scheduler")

	jobs := make(map[string]func(context.Context) (*retention.Result, error))
	if archiver != nil {
		jobs[JobArchive] = archiver.ArchiveMessages
	}
	if janitor != nil {
		jobs[JobJanitor] = janitor.DeleteExpiredArchivedData
	}

	return &Scheduler{
		jobs:    jobs,
		config:  config,
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{logger}))),
		entries: make(map[string]cron.EntryID),
		logger:  logger,
	}
}

// Start schedules the configured jobs. Scheduling stops when ctx is done
// or Stop is called.
//
// Common cron expressions:
//   - "0 2 * * *"    - Daily at 2 AM
//   - "0 */6 * * *"  - Every 6 hours
//   - "0 4 * * 0"    - Weekly on Sunday at 4 AM
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	schedules := map[string]string{
		JobArchive: s.config.ArchiveSchedule,
		JobJanitor: s.config.JanitorSchedule,
	}

	for _, name := range []string{JobArchive, JobJanitor} {
		spec := schedules[name]
		if spec == "" || s.jobs[name] == nil {
			s.logger.Info("job not scheduled", "job", name)
			continue
		}

		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid cron schedule %q for %s: %w", spec, name, err)
		}

		id, err := s.cron.AddFunc(spec, func() {
			s.run(ctx, name)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", name, err)
		}
		s.entries[name] = id
	}

	if len(s.entries) == 0 {
		s.logger.Info("no retention jobs configured, skipping scheduler")
		return nil
	}

	s.cron.Start()
	s.running = true
	s.stop = make(chan struct{})
	s.watching = make(chan struct{})

	s.logger.Info("retention scheduler started",
		"archive_schedule", s.config.ArchiveSchedule,
		"janitor_schedule", s.config.JanitorSchedule,
	)

	go func(stop, watching chan struct{}) {
		defer close(watching)
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stop:
		}
	}(s.stop, s.watching)

	return nil
}

// RunNow runs a job immediately, unless another job is in progress.
// It returns ErrBusy in that case.
func (s *Scheduler) RunNow(ctx context.Context, name string) (*retention.Result, error) {
	job, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("unknown job %q", name)
	}
	if !s.busy.TryLock() {
		return nil, ErrBusy
	}
	defer s.busy.Unlock()

	return job(ctx)
}

func (s *Scheduler) run(ctx context.Context, name string) {
	ctx = logging.WithJob(ctx, name)
	s.logger.InfoContext(ctx, "starting scheduled job")

	result, err := s.RunNow(ctx, name)
	if errors.Is(err, ErrBusy) {
		s.record(name, JobSkipped)
		s.logger.WarnContext(ctx, "skipping scheduled job, another job is running")
		return
	}
	if err != nil {
		s.record(name, JobFailed)
		s.logger.ErrorContext(ctx, "scheduled job failed", "error", err)
		return
	}

	s.record(name, JobSuccess)
	s.logger.InfoContext(ctx, "scheduled job completed",
		"run_id", result.RunID,
		"rows", result.Total(),
	)
}

func (s *Scheduler) record(name, status string) {
	if s.config.Recorder != nil {
		s.config.Recorder.RecordJob(name, status)
	}
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		close(s.stop)
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled time of a job, or nil if the job is
// not scheduled.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return nil
	}

	entry := s.cron.Entry(id)
	if !entry.Valid() || entry.Next.IsZero() {
		return nil
	}
	next := entry.Next
	return &next
}

// cronLogger routes cron's own messages (panics recovered from jobs) to
// slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
