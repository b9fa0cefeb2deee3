package core

// jobs.go runs import mode in the background.
//
// StartImport validates the upload, registers a job and returns its id at
// once. The job waits for an upload slot, runs under UploadTimeout and records
// its outcome; failures are logged and kept on the job for operators, never
// returned to the caller that started it. Finished jobs are forgotten after
// Options.JobRetention.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seduc-am/planoacao/internal/logging"
	"github.com/seduc-am/planoacao/internal/metrics"
)

// ErrJobNotFound is returned for unknown or expired job ids.
var ErrJobNotFound = errors.New("import job not found")

// JobState is the lifecycle phase of an import job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Finished reports whether the job reached a terminal state.
func (s JobState) Finished() bool {
	return s == JobCompleted || s == JobFailed
}

// ImportJob is a snapshot of a background import.
type ImportJob struct {
	ID         string     `json:"id"`
	FileName   string     `json:"file_name"`
	State      JobState   `json:"state"`
	Inserted   int64      `json:"inserted"`
	Skipped    int        `json:"skipped"`
	Error      string     `json:"error,omitempty"`
	Code       string     `json:"code,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type importJob struct {
	mu   sync.Mutex
	snap ImportJob
	done chan struct{}
}

func (j *importJob) update(fn func(*ImportJob)) {
	j.mu.Lock()
	fn(&j.snap)
	j.mu.Unlock()
}

func (j *importJob) snapshot() ImportJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snap
}

// StartImport validates fileName/data and schedules import mode. The
// returned id can be polled with ImportJobStatus.
func (s *Service) StartImport(ctx context.Context, fileName string, data []byte) (string, error) {
	if err := ValidateUpload(fileName, data, s.opts.MaxFileSize); err != nil {
		return "", err
	}

	job := &importJob{
		snap: ImportJob{
			ID:        uuid.NewString(),
			FileName:  fileName,
			State:     JobQueued,
			CreatedAt: s.clock.Now(),
		},
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.snap.ID] = job
	s.mu.Unlock()

	// The request context ends with the response; keep only its logger.
	log := logging.FromContext(ctx).With("job_id", job.snap.ID, "file", fileName)
	go s.runImport(job, data, log)

	return job.snap.ID, nil
}

func (s *Service) runImport(job *importJob, data []byte, log *slog.Logger) {
	defer close(job.done)
	defer s.forgetJob(job.snap.ID, s.opts.JobRetention)
	defer func() {
		if r := recover(); r != nil {
			log.Error("panic in import job", "panic", r)
			s.finishJob(job, ImportResult{}, fmt.Errorf("internal error: %v", r), log)
		}
	}()

	ctx, cancel := context.WithTimeout(s.jobCtx, s.opts.UploadTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, log)

	if err := s.limiter.Acquire(ctx); err != nil {
		s.finishJob(job, ImportResult{}, err, log)
		return
	}
	defer s.limiter.Release()

	started := s.clock.Now()
	job.update(func(j *ImportJob) {
		j.State = JobRunning
		j.StartedAt = &started
	})
	log.Info("import job started")

	result, err := s.ImportPlans(ctx, data)
	s.finishJob(job, result, err, log)
}

func (s *Service) finishJob(job *importJob, result ImportResult, err error, log *slog.Logger) {
	finished := s.clock.Now()
	job.update(func(j *ImportJob) {
		j.Inserted = result.Inserted
		j.Skipped = result.Skipped
		j.FinishedAt = &finished
		if err != nil {
			j.State = JobFailed
			j.Error = FormatUserError(err)
			j.Code = MapError(err).Code
			return
		}
		j.State = JobCompleted
	})

	if err != nil {
		metrics.JobFinished(metrics.JobFailed)
		log.Error("import job failed", "error", err, "inserted", result.Inserted)
		return
	}
	metrics.JobFinished(metrics.JobCompleted)
	log.Info("import job completed",
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"batches", result.Batches,
	)
}

// forgetJob drops a finished job after delay.
func (s *Service) forgetJob(id string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
	})
}

// ImportJobStatus returns the current snapshot of a job.
func (s *Service) ImportJobStatus(id string) (ImportJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return ImportJob{}, ErrJobNotFound
	}
	return job.snapshot(), nil
}

// WaitForJob blocks until the job finishes or ctx ends.
func (s *Service) WaitForJob(ctx context.Context, id string) (ImportJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return ImportJob{}, ErrJobNotFound
	}

	select {
	case <-job.done:
		return job.snapshot(), nil
	case <-ctx.Done():
		return job.snapshot(), ctx.Err()
	}
}
