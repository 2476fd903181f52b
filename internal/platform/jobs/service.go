package jobs

import (
	"context"
	"log/slog"
	"time"
)

const (
	JobSessionPurge = "session_purge"
	JobGrantsSeed   = "grants_seed"
)

type RunFunc func(context.Context) (any, error)

// Service runs queued jobs on one worker and enqueues scheduled jobs on
// their interval.
type Service struct {
	queue     chan job
	schedules []schedule
}

type job struct {
	Type string
	Run  RunFunc
}

type schedule struct {
	jobType  string
	interval time.Duration
	run      RunFunc
}

func New() *Service {
	return &Service{queue: make(chan job, 128)}
}

// Every registers run to be enqueued each interval once Run starts. A
// non-positive interval disables the job.
func (s *Service) Every(jobType string, interval time.Duration, run RunFunc) {
	if interval <= 0 {
		slog.Info("job disabled", "jobType", jobType)
		return
	}
	s.schedules = append(s.schedules, schedule{jobType: jobType, interval: interval, run: run})
}

func (s *Service) Enqueue(jobType string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Run blocks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	for _, sch := range s.schedules {
		go s.tick(ctx, sch)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) tick(ctx context.Context, sch schedule) {
	ticker := time.NewTicker(sch.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(sch.jobType, sch.run)
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	start := time.Now()
	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	slog.Info("job run",
		"jobType", j.Type,
		"status", status,
		"durationMs", time.Since(start).Milliseconds(),
		"details", details,
	)
	return details, err
}
