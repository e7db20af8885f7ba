package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

type fakeStore struct {
	mu       sync.Mutex
	batchErr error
	failIDs  map[string]bool
	batches  int
	stored   []string
}

func (s *fakeStore) AppendBatch(_ context.Context, batch []*model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	if s.batchErr != nil {
		return s.batchErr
	}
	for _, r := range batch {
		s.stored = append(s.stored, r.ID)
	}
	return nil
}

func (s *fakeStore) Append(_ context.Context, r *model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[r.ID] {
		return errors.New("row rejected")
	}
	s.stored = append(s.stored, r.ID)
	return nil
}

type fakeEvents struct {
	mu  sync.Mutex
	ids []string
}

func (e *fakeEvents) PublishResult(_ context.Context, r *model.Result) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, r.ID)
	return nil
}

func (e *fakeEvents) PublishExamSaved(context.Context, *model.Exam) error { return nil }

func newTestWorker(store *fakeStore, events *fakeEvents, requeued *[]string) *ResultWorker {
	return &ResultWorker{
		store:  store,
		events: events,
		requeue: func(_ context.Context, r *model.Result) error {
			*requeued = append(*requeued, r.ID)
			return nil
		},
		log: zerolog.Nop(),
	}
}

func batchOf(ids ...string) []*model.Result {
	out := make([]*model.Result, len(ids))
	for i, id := range ids {
		out[i] = &model.Result{ID: id, StudentID: "s", ExamID: "e"}
	}
	return out
}

func TestFlush(t *testing.T) {
	tests := []struct {
		name         string
		store        *fakeStore
		wantStored   []string
		wantRequeued []string
		wantEvents   int
	}{
		{
			name:       "batch succeeds",
			store:      &fakeStore{},
			wantStored: []string{"a", "b", "c"},
			wantEvents: 3,
		},
		{
			name:       "batch fails, singles succeed",
			store:      &fakeStore{batchErr: errors.New("deadlock")},
			wantStored: []string{"a", "b", "c"},
			wantEvents: 3,
		},
		{
			name:         "failed single is requeued",
			store:        &fakeStore{batchErr: errors.New("deadlock"), failIDs: map[string]bool{"b": true}},
			wantStored:   []string{"a", "c"},
			wantRequeued: []string{"b"},
			wantEvents:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requeued []string
			events := &fakeEvents{}
			w := newTestWorker(tt.store, events, &requeued)

			w.flush(context.Background(), batchOf("a", "b", "c"))

			if !equal(tt.store.stored, tt.wantStored) {
				t.Errorf("stored = %v, want %v", tt.store.stored, tt.wantStored)
			}
			if !equal(requeued, tt.wantRequeued) {
				t.Errorf("requeued = %v, want %v", requeued, tt.wantRequeued)
			}
			if len(events.ids) != tt.wantEvents {
				t.Errorf("events = %d, want %d", len(events.ids), tt.wantEvents)
			}
		})
	}
}

func TestFlushEmptyBatchIsNoop(t *testing.T) {
	store := &fakeStore{}
	var requeued []string
	w := newTestWorker(store, &fakeEvents{}, &requeued)

	w.flush(context.Background(), nil)

	if store.batches != 0 {
		t.Errorf("AppendBatch called %d times for empty batch", store.batches)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
