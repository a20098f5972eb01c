package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tordrt/schemadesigner/internal/generator"
	"github.com/tordrt/schemadesigner/internal/serializer"
)

// ErrJobNotFound is returned for a job id this process never submitted
var ErrJobNotFound = errors.New("job not found")

// ErrClosed is returned when submitting after the tracker was closed
var ErrClosed = errors.New("job tracker is closed")

// Job is the locally known state of a remote generation job
type Job struct {
	ID     string              `json:"id"`
	Status generator.JobStatus `json:"status"`
	Report *generator.Report   `json:"report,omitempty"`
	Error  string              `json:"error,omitempty"`
	Done   bool                `json:"done"`
}

// JobTracker submits schemas and follows their jobs in the background.
// Close cancels every poll still running.
type JobTracker struct {
	client *generator.Client
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	jobs   map[string]*Job
	closed bool
}

// NewJobTracker creates a tracker using client
func NewJobTracker(client *generator.Client, logger *slog.Logger) *JobTracker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobTracker{
		client: client,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*Job),
	}
}

// Start submits doc and starts following the job. The submission itself
// is bound to ctx; polling is bound to the tracker.
func (t *JobTracker) Start(ctx context.Context, doc serializer.Document) (Job, error) {
	if t.isClosed() {
		return Job{}, ErrClosed
	}
	id, err := t.client.Submit(ctx, doc)
	if err != nil {
		return Job{}, err
	}

	job := &Job{ID: id, Status: generator.JobStatus{Status: generator.StatusQueued}}
	t.mu.Lock()
	defer t.mu.Unlock()
	// Close may have run during the submission
	if t.closed {
		t.logger.Warn("generation job submitted after shutdown began; not following it", slog.String("job_id", id))
		return Job{}, ErrClosed
	}
	t.jobs[id] = job
	t.wg.Add(1)
	go t.follow(id)
	return *job, nil
}

func (t *JobTracker) isClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

func (t *JobTracker) follow(id string) {
	defer t.wg.Done()

	_, err := t.client.Poll(t.ctx, id, func(st generator.JobStatus) {
		t.update(id, func(j *Job) { j.Status = st })
	})
	if err == nil {
		var report generator.Report
		report, err = t.client.Results(t.ctx, id)
		if err == nil {
			t.update(id, func(j *Job) { j.Report = &report })
		}
	}

	if errors.Is(err, context.Canceled) {
		t.logger.Info("stopped following generation job", slog.String("job_id", id))
		return
	}
	if err != nil {
		t.logger.Warn("generation job failed", slog.String("job_id", id), slog.Any("error", err))
	}
	t.update(id, func(j *Job) {
		j.Done = true
		if err != nil {
			j.Error = err.Error()
		}
	})
}

func (t *JobTracker) update(id string, fn func(*Job)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[id]; ok {
		fn(j)
	}
}

// Get returns a copy of a job's state
func (t *JobTracker) Get(id string) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *j, nil
}

// Close cancels running polls and waits for them to return. Start fails
// with ErrClosed afterwards.
func (t *JobTracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
}
