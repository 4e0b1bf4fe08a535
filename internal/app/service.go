// Package service wires the navigation table and the library client into
// the dependencies used by the web front-end, and runs scheduled backend jobs.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/jackskhakis/gameyfin/internal/adapters/http/library"
	"github.com/jackskhakis/gameyfin/internal/domain/navigation"
	"github.com/jackskhakis/gameyfin/pkg/logger"
	"github.com/jackskhakis/gameyfin/pkg/metrics"
)

// Job names.
const (
	JobScan           = "scan"
	JobDownloadImages = "download-images"
)

// Sentinel kinds for service errors.
var (
	ErrUnknownJob = errors.New("unknown job")
	ErrNoClient   = errors.New("no library client configured")
)

// Backend is the subset of the library client the service needs.
type Backend interface {
	ScanLibrary(ctx context.Context) (*library.Response, error)
	DownloadImages(ctx context.Context) (*library.Response, error)
	ListFiles(ctx context.Context) ([]string, error)
}

// JobStats summarizes one scheduled job.
type JobStats struct {
	Schedule string
	Runs     int64
	Failures int64
	Skipped  int64
	Running  bool
}

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context) (*library.Response, error)

	running  atomic.Bool
	runs     atomic.Int64
	failures atomic.Int64
	skipped  atomic.Int64
}

// Service implements the web front-end dependencies.
type Service struct {
	mu sync.RWMutex

	client Backend
	table  *navigation.Table

	scanSchedule  string
	imageSchedule string

	cron    *cron.Cron
	jobs    map[string]*job // fixed by New
	cancel  context.CancelFunc
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithClient sets the backend client.
func WithClient(c Backend) Option {
	return func(s *Service) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTable replaces the default navigation table.
func WithTable(t *navigation.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.table = t
		}
	}
}

// WithScanSchedule sets the cron expression for periodic library scans.
func WithScanSchedule(spec string) Option {
	return func(s *Service) { s.scanSchedule = spec }
}

// WithImageSchedule sets the cron expression for periodic image downloads.
func WithImageSchedule(spec string) Option {
	return func(s *Service) { s.imageSchedule = spec }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service using the default navigation table. Both jobs
// exist from the start so on-demand runs share the running guard with
// scheduled ones.
func New(opts ...Option) *Service {
	s := &Service{
		table: navigation.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.jobs = map[string]*job{
		JobScan: {
			name:     JobScan,
			schedule: s.scanSchedule,
			run:      func(ctx context.Context) (*library.Response, error) { return s.client.ScanLibrary(ctx) },
		},
		JobDownloadImages: {
			name:     JobDownloadImages,
			schedule: s.imageSchedule,
			run:      func(ctx context.Context) (*library.Response, error) { return s.client.DownloadImages(ctx) },
		},
	}
	return s
}

// Start registers the scheduled jobs and starts the scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.client == nil {
		return ErrNoClient
	}

	jobCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	scheduled := 0

	for _, name := range []string{JobScan, JobDownloadImages} {
		j := s.jobs[name]
		if j.schedule == "" {
			continue
		}
		if _, err := c.AddFunc(j.schedule, func() { _, _, _ = s.runJob(jobCtx, j) }); err != nil {
			cancel()
			return fmt.Errorf("service: invalid %s schedule %q: %w", j.name, j.schedule, err)
		}
		scheduled++
		s.logger.Info(ctx, "scheduled backend job", logger.String("job", j.name), logger.String("schedule", j.schedule))
	}

	c.Start()
	s.cron = c
	s.cancel = cancel
	s.started = true
	s.logger.Info(ctx, "service started", logger.Int("jobs", scheduled))
	return nil
}

// Stop halts the scheduler and waits for running jobs to return.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	c, cancel, log := s.cron, s.cancel, s.logger
	s.started = false
	s.mu.Unlock()

	// Running jobs read the logger under the lock, so wait outside it.
	<-c.Stop().Done()
	cancel()
	log.Info(context.Background(), "service stopped")
}

// RunJob runs a job immediately. ran is false when the job was skipped
// because a previous run, scheduled or on demand, is still in progress.
func (s *Service) RunJob(ctx context.Context, name string) (resp *library.Response, ran bool, err error) {
	j, ok := s.jobs[name]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.runJob(ctx, j)
}

func (s *Service) runJob(ctx context.Context, j *job) (*library.Response, bool, error) {
	if s.client == nil {
		return nil, false, ErrNoClient
	}
	log := s.log()
	if !j.running.CompareAndSwap(false, true) {
		j.skipped.Add(1)
		metrics.RecordScheduledRun(j.name, metrics.RunSkipped)
		log.Info(ctx, "backend job already running, skipping", logger.String("job", j.name))
		return nil, false, nil
	}
	defer j.running.Store(false)

	log.Info(ctx, "backend job starting", logger.String("job", j.name))
	resp, err := j.run(ctx)
	j.runs.Add(1)
	if err != nil {
		j.failures.Add(1)
		metrics.RecordScheduledRun(j.name, metrics.RunFailed)
		log.Warn(ctx, "backend job failed", logger.String("job", j.name), logger.Error(err))
		return resp, true, err
	}
	metrics.RecordScheduledRun(j.name, metrics.RunOK)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	log.Info(ctx, "backend job finished", logger.String("job", j.name), logger.Int("status", status))
	return resp, true, nil
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Nop()
	}
	return s.logger
}

// Stats returns per-job counters keyed by job name. Jobs without a
// schedule are listed too; they only run on demand.
func (s *Service) Stats() map[string]JobStats {
	out := make(map[string]JobStats, len(s.jobs))
	for name, j := range s.jobs {
		out[name] = JobStats{
			Schedule: j.schedule,
			Runs:     j.runs.Load(),
			Failures: j.failures.Load(),
			Skipped:  j.skipped.Load(),
			Running:  j.running.Load(),
		}
	}
	return out
}

// Resolve maps a page path through the navigation table.
func (s *Service) Resolve(path string) navigation.Resolution {
	res := s.table.Resolve(path)
	metrics.RecordResolution(res.Kind.String())
	return res
}

// NotFound returns the view rendered for unknown paths.
func (s *Service) NotFound() navigation.View { return s.table.NotFound() }

// Table exposes the navigation table.
func (s *Service) Table() *navigation.Table { return s.table }

// ListFiles forwards to the backend.
func (s *Service) ListFiles(ctx context.Context) ([]string, error) {
	return s.client.ListFiles(ctx)
}
