package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusError reports a retry for rate limits and server errors
type statusError struct{ code int }

func (e statusError) Error() string   { return fmt.Sprintf("upstream status %d", e.code) }
func (e statusError) Retryable() bool { return e.code == 429 || e.code >= 500 }

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func TestJobBegin_Metadata(t *testing.T) {
	id := uuid.New()
	ctx, cancel := JobBegin(context.Background(), id, "analysis", 2, WithMaxRetries(5))
	defer cancel()

	meta := GetJobMetadata(ctx)
	assert.Equal(t, id, meta.JobID)
	assert.Equal(t, "analysis", meta.JobType)
	assert.Equal(t, 2, meta.WorkerID)
	assert.Equal(t, 5, meta.MaxRetries)
	assert.False(t, meta.StartTime.IsZero())

	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestJobEnd_RetriesRetryableErrors(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "analysis", 0,
		WithMaxRetries(3), WithBackOff(fastBackOff))
	defer cancel()

	var attempts []int
	err := JobEnd(ctx, func(ctx context.Context) error {
		attempts = append(attempts, GetRetryAttempt(ctx))
		if len(attempts) < 3 {
			return statusError{code: 503}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestJobEnd_StopsAfterMaxRetries(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "analysis", 0,
		WithMaxRetries(2), WithBackOff(fastBackOff))
	defer cancel()

	calls := 0
	err := JobEnd(ctx, func(ctx context.Context) error {
		calls++
		return &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "max retries (2) exceeded")
}

func TestJobEnd_NonRetryableStopsImmediately(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "analysis", 0, WithBackOff(fastBackOff))
	defer cancel()

	sentinel := errors.New("malformed payload")
	calls := 0
	err := JobEnd(ctx, func(ctx context.Context) error {
		calls++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestJobEnd_RecoversPanics(t *testing.T) {
	ctx, cancel := JobBegin(context.Background(), uuid.New(), "analysis", 0, WithBackOff(fastBackOff))
	defer cancel()

	err := JobEnd(ctx, func(ctx context.Context) error {
		panic("boom")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic recovered: boom")
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(fmt.Errorf("analysis: %w", statusError{code: 529})))
	assert.True(t, IsRetryableError(statusError{code: 429}))
	assert.False(t, IsRetryableError(statusError{code: 400}))
	assert.True(t, IsRetryableError(&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}))
	assert.True(t, IsRetryableError(fmt.Errorf("save: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, IsRetryableError(&pgconn.PgError{Code: "23505"}))

	// the text of an error is not inspected
	assert.False(t, IsRetryableError(errors.New("status 503 service unavailable")))
}
