package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

// tick delivers one tick and reports whether the timer goroutine took it.
func (f *fakeTicker) tick() bool {
	select {
	case f.ch <- time.Now():
		return true
	case <-time.After(100 * time.Millisecond):
		return false
	}
}

type fakeClock struct {
	created chan *fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{created: make(chan *fakeTicker, 8)}
}

func (c *fakeClock) factory(time.Duration) Ticker {
	tk := &fakeTicker{ch: make(chan time.Time)}
	c.created <- tk
	return tk
}

func (c *fakeClock) next(t *testing.T) *fakeTicker {
	t.Helper()
	select {
	case tk := <-c.created:
		return tk
	case <-time.After(time.Second):
		t.Fatal("timer never created a ticker")
		return nil
	}
}

type recordingSink struct {
	mu      sync.Mutex
	results []*model.Result
	err     error
	panics  bool
	block   chan struct{}
}

func (r *recordingSink) Append(ctx context.Context, res *model.Result) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.panics {
		panic("sink exploded")
	}
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res.ID = fmt.Sprintf("result-%d", len(r.results)+1)
	r.results = append(r.results, res)
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

var errSinkDown = errors.New("store unavailable")

func intPtr(v int) *int { return &v }

func testExam(minutes int) *model.Exam {
	return &model.Exam{
		ID:              "exam-1",
		Name:            "JEE Main Mock",
		DurationMinutes: minutes,
		Questions: []model.Question{
			{ID: 1, Subject: model.SubjectPhysics, Type: model.QuestionTypeMCQ, Section: model.SectionA,
				Text: "q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "2"},
			{ID: 2, Subject: model.SubjectPhysics, Type: model.QuestionTypeMCQ, Section: model.SectionA,
				Text: "q2", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "0"},
			{ID: 3, Subject: model.SubjectMathematics, Type: model.QuestionTypeNAT, Section: model.SectionB,
				Text: "q3", CorrectAnswer: "1.5"},
		},
	}
}

func testStudent() *model.Student {
	return &model.Student{ID: "stu-1", Name: "Asha", RollNumber: "JEE2024001"}
}

func newTestSession(t *testing.T, sink ResultSink, minutes int, clock *fakeClock) *Session {
	t.Helper()
	p := NewPipeline(sink, StageDelays{}, time.Second, zerolog.Nop())
	var factory TickerFactory
	if clock != nil {
		factory = clock.factory
	} else {
		factory = func(time.Duration) Ticker { return &fakeTicker{ch: make(chan time.Time)} }
	}
	s, err := New(testExam(minutes), testStudent(), p, factory, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not finish")
	}
}
