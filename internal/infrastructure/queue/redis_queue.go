package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue is a FIFO of analysis job ids on a Redis list
type RedisQueue struct {
	client redis.UniversalClient
	name   string
}

// NewRedisQueue creates a queue on the list called name
func NewRedisQueue(client redis.UniversalClient, name string) *RedisQueue {
	return &RedisQueue{client: client, name: name}
}

// Enqueue pushes a job id
func (q *RedisQueue) Enqueue(ctx context.Context, jobID uuid.UUID) error {
	if err := q.client.LPush(ctx, q.name, jobID.String()).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the oldest job id. ok is false on timeout.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (jobID uuid.UUID, ok bool, err error) {
	res, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to dequeue: %w", err)
	}
	// res is [list, value]
	if len(res) != 2 {
		return uuid.Nil, false, fmt.Errorf("unexpected BRPOP reply %v", res)
	}
	id, err := uuid.Parse(res[1])
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid job id %q in queue: %w", res[1], err)
	}
	return id, true, nil
}

// Len returns the number of waiting jobs
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}
