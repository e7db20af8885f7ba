package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/model"
)

// ResultQueue hands finished attempts to the ResultWorker through a Redis
// list, so a submission completes without waiting on PostgreSQL.
type ResultQueue struct {
	rdb *redis.Client
	key string
}

// NewResultQueue creates a ResultQueue on the shared persist queue.
func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb, key: config.WorkerKey.PersistResultsQueue}
}

// Append assigns an ID and timestamp when missing, then enqueues r.
func (q *ResultQueue) Append(ctx context.Context, r *model.Result) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}
	return nil
}

// Depth returns the number of results waiting to be persisted.
func (q *ResultQueue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
