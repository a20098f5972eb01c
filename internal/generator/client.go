// Package generator talks to the remote data generation service. It sends
// a serialized schema, polls the job until it settles and fetches the
// previews and quality report. Payloads coming back are passed through
// untouched; nothing here reads or changes the schema model.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/schemadesigner/internal/serializer"
)

const (
	DefaultPollInterval   = 2 * time.Second
	DefaultMaxAttempts    = 150
	DefaultRequestTimeout = 30 * time.Second

	maxErrorBody = 4 << 10
)

// Status is the lifecycle state of a remote job
type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// JobStatus is one answer of the status endpoint
type JobStatus struct {
	Status   Status `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Settled reports whether the job will not change any more
func (s JobStatus) Settled() bool {
	return s.Status == StatusComplete || s.Status == StatusError
}

// Report holds what a finished job produced
type Report struct {
	JobID         string          `json:"job_id"`
	Previews      json.RawMessage `json:"previews"`
	QualityReport json.RawMessage `json:"quality_report"`
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithPollInterval sets the delay between status checks
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithMaxAttempts bounds the number of status checks per Poll
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger sets the logger (slog.Default() otherwise)
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client is a generation service client. It holds no job state and is
// safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// New creates a client for the service rooted at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: DefaultRequestTimeout},
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

// Submit sends a serialized schema and returns the id of the new job
func (c *Client) Submit(ctx context.Context, doc serializer.Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode schema: %w", err)
	}

	var resp submitResponse
	if err := c.do(ctx, http.MethodPost, "/jobs", body, &resp); err != nil {
		return "", fmt.Errorf("failed to submit schema: %w", err)
	}
	if resp.JobID == "" {
		return "", ErrEmptyJobID
	}

	c.logger.Info("generation job submitted",
		slog.String("job_id", resp.JobID),
		slog.Int("tables", len(doc.Tables)),
	)
	return resp.JobID, nil
}

// Status fetches the current state of a job
func (c *Client) Status(ctx context.Context, jobID string) (JobStatus, error) {
	var st JobStatus
	if err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID), nil, &st); err != nil {
		return JobStatus{}, fmt.Errorf("failed to get status of job %s: %w", jobID, err)
	}
	return st, nil
}

// Poll checks the job at a fixed interval until it settles. onProgress,
// when set, sees every status read. Polling stops at the first transport
// or remote error, when ctx is done, or after the attempt ceiling.
func (c *Client) Poll(ctx context.Context, jobID string, onProgress func(JobStatus)) (JobStatus, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	var last JobStatus
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-timer.C:
		}

		st, err := c.Status(ctx, jobID)
		if err != nil {
			return last, err
		}
		last = st
		if onProgress != nil {
			onProgress(st)
		}

		switch st.Status {
		case StatusComplete:
			return st, nil
		case StatusError:
			reason := st.Error
			if reason == "" {
				reason = st.Message
			}
			return st, fmt.Errorf("%w: %s", ErrJobFailed, reason)
		}

		c.logger.Debug("generation job pending",
			slog.String("job_id", jobID),
			slog.String("status", string(st.Status)),
			slog.Int("progress", st.Progress),
			slog.Int("attempt", attempt),
		)
		timer.Reset(c.interval)
	}
	return last, fmt.Errorf("%w: %d attempts", ErrPollExhausted, c.maxAttempts)
}

// Results fetches the previews and the quality report of a finished job
// concurrently
func (c *Client) Results(ctx context.Context, jobID string) (Report, error) {
	report := Report{JobID: jobID}
	base := "/jobs/" + url.PathEscape(jobID)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := c.do(ctx, http.MethodGet, base+"/preview", nil, &report.Previews); err != nil {
			return fmt.Errorf("failed to fetch previews: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		if err := c.do(ctx, http.MethodGet, base+"/quality-report", nil, &report.QualityReport); err != nil {
			return fmt.Errorf("failed to fetch quality report: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return Report{}, err
	}
	return report, nil
}

// Run submits doc, waits for the job and returns its results
func (c *Client) Run(ctx context.Context, doc serializer.Document, onProgress func(JobStatus)) (Report, error) {
	jobID, err := c.Submit(ctx, doc)
	if err != nil {
		return Report{}, err
	}
	if _, err := c.Poll(ctx, jobID, onProgress); err != nil {
		return Report{JobID: jobID}, err
	}
	return c.Results(ctx, jobID)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
