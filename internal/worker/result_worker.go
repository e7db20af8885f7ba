package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/config"
	"github.com/apexlabs/ntamock-backend/internal/event"
	"github.com/apexlabs/ntamock-backend/internal/metrics"
	"github.com/apexlabs/ntamock-backend/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore is the durable side of the queue.
type ResultStore interface {
	Append(ctx context.Context, r *model.Result) error
	AppendBatch(ctx context.Context, batch []*model.Result) error
}

// ResultWorker drains the persist queue into PostgreSQL in batches.
type ResultWorker struct {
	rdb     *redis.Client
	store   ResultStore
	events  event.Publisher
	requeue func(ctx context.Context, r *model.Result) error
	log     zerolog.Logger
}

// NewResultWorker creates a worker reading the queue behind rdb.
func NewResultWorker(rdb *redis.Client, store ResultStore, events event.Publisher, log zerolog.Logger) *ResultWorker {
	w := &ResultWorker{
		rdb:    rdb,
		store:  store,
		events: events,
		log:    log.With().Str("component", "result_worker").Logger(),
	}
	w.requeue = NewResultQueue(rdb).Append
	return w
}

// Start blocks until ctx is cancelled, then flushes what it holds.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.Result, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {
			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested, flushing remaining results")
			w.flush(context.WithoutCancel(ctx), batch)
			return
		default:
		}

		item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("BLPop error")
			}
			continue
		}
		if len(item) < 2 {
			continue
		}

		var r model.Result
		if err := json.Unmarshal([]byte(item[1]), &r); err != nil {
			w.log.Error().Err(err).Msg("Dropping invalid result payload")
			continue
		}
		batch = append(batch, &r)
	}
}

// flush writes batch in one statement, falling back to row-by-row inserts.
// Rows that still fail go back on the queue.
func (w *ResultWorker) flush(ctx context.Context, batch []*model.Result) {
	if len(batch) == 0 {
		return
	}

	err := w.store.AppendBatch(ctx, batch)
	if err == nil {
		metrics.ResultsPersisted.WithLabelValues("batch").Add(float64(len(batch)))
		w.announce(ctx, batch)
		return
	}
	w.log.Warn().Err(err).Int("size", len(batch)).Msg("Bulk insert failed, using fallback")

	stored := make([]*model.Result, 0, len(batch))
	for _, r := range batch {
		if err := w.store.Append(ctx, r); err != nil {
			w.log.Error().Err(err).Str("result_id", r.ID).Msg("Single insert failed, requeueing")
			if err := w.requeue(ctx, r); err != nil {
				w.log.Error().Err(err).Str("result_id", r.ID).Msg("Requeue failed, result lost")
				continue
			}
			metrics.ResultsPersisted.WithLabelValues("requeued").Inc()
			continue
		}
		metrics.ResultsPersisted.WithLabelValues("single").Inc()
		stored = append(stored, r)
	}
	w.announce(ctx, stored)
}

func (w *ResultWorker) announce(ctx context.Context, stored []*model.Result) {
	if w.events == nil {
		return
	}
	for _, r := range stored {
		if err := w.events.PublishResult(ctx, r); err != nil {
			w.log.Warn().Err(err).Str("result_id", r.ID).Msg("Failed to publish result event")
		}
	}
}
