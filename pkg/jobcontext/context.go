package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type KeyContext string

var (
	keyJobID        KeyContext = "job_id"
	keyJobType      KeyContext = "job_type"
	keyWorkerID     KeyContext = "worker_id"
	keyRetryAttempt KeyContext = "retry_attempt"
	keyJobStartTime KeyContext = "job_start_time"
	keyMaxRetries   KeyContext = "max_retries"
	keyBackOff      KeyContext = "backoff"
)

const (
	DefaultTimeout    = 5 * time.Minute
	DefaultMaxRetries = 3
)

// JobMetadata holds metadata for a job execution
type JobMetadata struct {
	JobID        uuid.UUID
	JobType      string
	WorkerID     int
	RetryAttempt int
	MaxRetries   int
	StartTime    time.Time
}

type options struct {
	timeout    time.Duration
	maxRetries int
	backOff    func() backoff.BackOff
}

// Option customises a job context
type Option func(*options)

// WithTimeout bounds the whole job, retries included
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxRetries sets the number of attempts
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithBackOff sets the delay policy between attempts
func WithBackOff(f func() backoff.BackOff) Option {
	return func(o *options) {
		if f != nil {
			o.backOff = f
		}
	}
}

// DefaultBackOff waits 2s, 4s, ... capped at 10s between attempts
func DefaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0
	return bo
}

// JobBegin initializes a job context with metadata and a timeout
func JobBegin(parentCtx context.Context, jobID uuid.UUID, jobType string, workerID int, opts ...Option) (context.Context, context.CancelFunc) {
	o := options{timeout: DefaultTimeout, maxRetries: DefaultMaxRetries, backOff: DefaultBackOff}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithTimeout(parentCtx, o.timeout)

	ctx = context.WithValue(ctx, keyJobID, jobID)
	ctx = context.WithValue(ctx, keyJobType, jobType)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyRetryAttempt, 0)
	ctx = context.WithValue(ctx, keyMaxRetries, o.maxRetries)
	ctx = context.WithValue(ctx, keyBackOff, o.backOff)
	ctx = context.WithValue(ctx, keyJobStartTime, time.Now())

	return ctx, cancel
}

// JobEnd runs jobFunc, retrying retryable failures with backoff until the
// attempts are used up or the context ends. Panics are turned into errors.
func JobEnd(ctx context.Context, jobFunc func(context.Context) error) error {
	maxRetries := GetMaxRetries(ctx)
	attempt := GetRetryAttempt(ctx)

	var lastErr, stopErr error
	op := func() error {
		if ctx.Err() != nil {
			stopErr = fmt.Errorf("context cancelled before job execution: %w", ctx.Err())
			return backoff.Permanent(stopErr)
		}

		err := runRecovered(SetRetryAttempt(ctx, attempt), jobFunc)
		attempt++
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryableError(err) {
			stopErr = fmt.Errorf("non-retryable error: %w", err)
			return backoff.Permanent(stopErr)
		}
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(newBackOff(ctx), uint64(maxRetries-1)), ctx)
	err := backoff.Retry(op, bo)
	if err == nil {
		return nil
	}

	if stopErr != nil {
		return stopErr
	}
	if lastErr != nil && attempt >= maxRetries {
		return fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
	}
	return fmt.Errorf("context cancelled during retry: %w", err)
}

func runRecovered(ctx context.Context, jobFunc func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()
	return jobFunc(ctx)
}

func newBackOff(ctx context.Context) backoff.BackOff {
	if f, ok := ctx.Value(keyBackOff).(func() backoff.BackOff); ok {
		return f()
	}
	return DefaultBackOff()
}

// GetJobID extracts job ID from context
func GetJobID(ctx context.Context) (uuid.UUID, bool) {
	jobID, ok := ctx.Value(keyJobID).(uuid.UUID)
	return jobID, ok
}

// GetJobType extracts job type from context
func GetJobType(ctx context.Context) (string, bool) {
	jobType, ok := ctx.Value(keyJobType).(string)
	return jobType, ok
}

// GetWorkerID extracts worker ID from context
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetRetryAttempt extracts current retry attempt from context
func GetRetryAttempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyRetryAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// SetRetryAttempt updates retry attempt in context
func SetRetryAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, keyRetryAttempt, attempt)
}

// GetMaxRetries extracts max retries from context
func GetMaxRetries(ctx context.Context) int {
	maxRetries, ok := ctx.Value(keyMaxRetries).(int)
	if !ok || maxRetries < 1 {
		return DefaultMaxRetries
	}
	return maxRetries
}

// GetJobStartTime extracts job start time from context
func GetJobStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyJobStartTime).(time.Time)
	return startTime, ok
}

// GetJobMetadata extracts all job metadata from context
func GetJobMetadata(ctx context.Context) *JobMetadata {
	jobID, _ := GetJobID(ctx)
	jobType, _ := GetJobType(ctx)
	startTime, _ := GetJobStartTime(ctx)

	return &JobMetadata{
		JobID:        jobID,
		JobType:      jobType,
		WorkerID:     GetWorkerID(ctx),
		RetryAttempt: GetRetryAttempt(ctx),
		MaxRetries:   GetMaxRetries(ctx),
		StartTime:    startTime,
	}
}

// Retryable is implemented by errors that know whether a new attempt can
// succeed, such as API errors classified by their status code.
type Retryable interface {
	Retryable() bool
}

// IsRetryableError checks if an error should trigger a retry.
// Retryable errors include timeouts, refused or reset connections,
// Postgres serialization failures and deadlocks, and errors reporting
// themselves as Retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)
