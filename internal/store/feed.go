// Package store carries the change feed that lets connected views refresh
// when exams, students or results change.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/config"
)

// Collection names a persisted set of records.
type Collection string

const (
	Exams    Collection = "exams"
	Students Collection = "students"
	Results  Collection = "results"
)

// Op is the kind of change applied to a record.
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
	OpInsert Op = "insert"
)

// Change is a single notification on the feed.
type Change struct {
	Collection Collection `json:"collection"`
	Op         Op         `json:"op"`
	ID         string     `json:"id"`
	At         time.Time  `json:"at"`
}

// Publisher is the write side of the feed. Repositories depend on this.
type Publisher interface {
	Publish(ctx context.Context, ch Change)
}

// Feed publishes and subscribes to changes over Redis pub/sub.
type Feed struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewFeed creates a Feed on rdb.
func NewFeed(rdb *redis.Client, log zerolog.Logger) *Feed {
	return &Feed{
		rdb: rdb,
		log: log.With().Str("component", "change_feed").Logger(),
	}
}

// Publish sends ch to subscribers. Failures are logged, never returned, since
// the write that triggered the change has already committed.
func (f *Feed) Publish(ctx context.Context, ch Change) {
	if ch.At.IsZero() {
		ch.At = time.Now().UTC()
	}
	data, err := json.Marshal(ch)
	if err != nil {
		return
	}
	if err := f.rdb.Publish(ctx, config.CacheKey.ChangeFeedChannel(string(ch.Collection)), data).Err(); err != nil {
		f.log.Warn().Err(err).
			Str("collection", string(ch.Collection)).
			Str("id", ch.ID).
			Msg("Failed to publish change")
	}
}

// Subscription is a live registration on one collection.
type Subscription struct {
	ps     *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops delivery and waits for the dispatch goroutine to exit.
func (s *Subscription) Close() error {
	s.cancel()
	err := s.ps.Close()
	<-s.done
	return err
}

// Subscribe invokes fn for every change on collection until ctx ends or the
// subscription is closed. fn runs on a single goroutine.
func (f *Feed) Subscribe(ctx context.Context, collection Collection, fn func(Change)) (*Subscription, error) {
	ps := f.rdb.Subscribe(ctx, config.CacheKey.ChangeFeedChannel(string(collection)))
	// Wait for the confirmation so no change published after return is missed.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{ps: ps, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var c Change
				if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
					f.log.Warn().Err(err).Msg("Dropping malformed change")
					continue
				}
				fn(c)
			}
		}
	}()

	return sub, nil
}

// Nop discards changes. Used where no feed is configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Change) {}
