// Package session runs a single student's timed attempt: the answer state,
// the countdown and the guarded submission.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/engine"
	"github.com/apexlabs/ntamock-backend/internal/model"
)

// Direction moves the current question pointer without touching answers.
type Direction string

const (
	DirectionBack Direction = "back"
	DirectionNext Direction = "next"
	DirectionJump Direction = "jump"
)

// EventKind labels a pushed session update.
type EventKind string

const (
	EventState     EventKind = "state"
	EventTick      EventKind = "tick"
	EventStage     EventKind = "stage"
	EventCompleted EventKind = "completed"
)

// Event is pushed to subscribers on every change.
type Event struct {
	Kind     EventKind `json:"event"`
	Snapshot Snapshot  `json:"snapshot"`
}

// Outcome is the score shown on the result summary.
type Outcome struct {
	engine.Breakdown
	MaxScore       int                 `json:"max_score"`
	Accuracy       float64             `json:"accuracy"`
	TotalQuestions int                 `json:"total_questions"`
	Trigger        model.SubmitTrigger `json:"trigger"`
	Synced         bool                `json:"synced"`
	ResultID       string              `json:"result_id,omitempty"`
	CompletedAt    time.Time           `json:"completed_at"`
}

// Snapshot is a consistent copy of the session's visible state.
type Snapshot struct {
	SessionID         string                `json:"session_id"`
	ExamID            string                `json:"exam_id"`
	ExamName          string                `json:"exam_name"`
	StudentID         string                `json:"student_id"`
	StudentName       string                `json:"student_name"`
	CurrentIndex      int                   `json:"current_index"`
	CurrentQuestionID int                   `json:"current_question_id"`
	TotalQuestions    int                   `json:"total_questions"`
	States            model.AnswerStates    `json:"states"`
	Palette           engine.PaletteCounts  `json:"palette"`
	RemainingSeconds  int                   `json:"remaining_seconds"`
	Submitting        bool                  `json:"submitting"`
	Stage             model.SubmissionStage `json:"stage"`
	StageLabel        string                `json:"stage_label"`
	View              model.View            `json:"view"`
	Outcome           *Outcome              `json:"outcome,omitempty"`
}

// Overview is the admin's live view of a session.
type Overview struct {
	SessionID        string                `json:"session_id"`
	ExamID           string                `json:"exam_id"`
	StudentID        string                `json:"student_id"`
	StudentName      string                `json:"student_name"`
	StartedAt        time.Time             `json:"started_at"`
	RemainingSeconds int                   `json:"remaining_seconds"`
	Palette          engine.PaletteCounts  `json:"palette"`
	LiveScore        int                   `json:"live_score"`
	Stage            model.SubmissionStage `json:"stage"`
	View             model.View            `json:"view"`
}

// Session owns one attempt. All mutation is serialized by mu; the
// submission flag is tested and set under the same lock so manual and
// timer submissions cannot both start a pipeline.
type Session struct {
	ID        string
	StartedAt time.Time

	exam     *model.Exam
	student  *model.Student
	timer    *Timer
	pipeline *Pipeline
	log      zerolog.Logger

	mu         sync.Mutex
	index      int
	states     model.AnswerStates
	submitting bool
	stage      model.SubmissionStage
	view       model.View
	outcome    *Outcome
	endedAt    time.Time

	done     chan struct{}
	doneOnce sync.Once

	subMu      sync.Mutex
	subs       map[int]chan Event
	nextSub    int
	subsClosed bool
}

// New builds a session in TEST_INTERFACE with a stopped timer.
func New(exam *model.Exam, student *model.Student, pipeline *Pipeline, ticker TickerFactory, log zerolog.Logger) (*Session, error) {
	if exam == nil || len(exam.Questions) == 0 {
		return nil, ErrNoExam
	}
	if student == nil {
		return nil, ErrNoStudent
	}

	s := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		exam:      exam,
		student:   student,
		pipeline:  pipeline,
		states:    make(model.AnswerStates),
		stage:     model.StageIdle,
		view:      model.ViewTestInterface,
		done:      make(chan struct{}),
		subs:      make(map[int]chan Event),
	}
	s.log = log.With().
		Str("session_id", s.ID).
		Str("student_id", student.ID).
		Str("exam_id", exam.ID).
		Logger()
	s.timer = NewTimer(exam.DurationMinutes*60, ticker, s.onTick, s.onExpire)
	return s, nil
}

// Exam returns the exam being taken.
func (s *Session) Exam() *model.Exam { return s.exam }

// Student returns the candidate.
func (s *Session) Student() *model.Student { return s.student }

// Done is closed once a submission has finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start begins the countdown.
func (s *Session) Start() {
	s.timer.Start()
	s.log.Info().Int("duration_minutes", s.exam.DurationMinutes).Msg("Session started")
}

// Apply runs an answer action on the current question. While a submission
// is running, or after the session left the test interface, the action is
// refused and the state is unchanged.
func (s *Session) Apply(a engine.Action) (Snapshot, error) {
	s.mu.Lock()
	if !s.acceptingLocked() {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrSessionLocked
	}

	q := s.exam.Questions[s.index]
	next, advance, err := engine.Apply(q, s.states[q.ID], a)
	if err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}

	s.states[q.ID] = next
	if advance && s.index < len(s.exam.Questions)-1 {
		s.index++
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.broadcast(Event{Kind: EventState, Snapshot: snap})
	return snap, nil
}

// Navigate moves between questions. It never creates answer entries.
func (s *Session) Navigate(dir Direction, index int) (Snapshot, error) {
	s.mu.Lock()
	if !s.acceptingLocked() {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrSessionLocked
	}

	last := len(s.exam.Questions) - 1
	switch dir {
	case DirectionBack:
		if s.index > 0 {
			s.index--
		}
	case DirectionNext:
		if s.index < last {
			s.index++
		}
	case DirectionJump:
		if index < 0 || index > last {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap, ErrIndexOutOfRange
		}
		s.index = index
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.broadcast(Event{Kind: EventState, Snapshot: snap})
	return snap, nil
}

// Submit starts the submission pipeline. Manual and timer-driven
// submissions both come through here. It returns false without side
// effects when a submission is already running or the session is no longer
// on the test interface. The run is detached from ctx cancellation.
func (s *Session) Submit(ctx context.Context, trigger model.SubmitTrigger) bool {
	s.mu.Lock()
	if s.exam == nil || s.student == nil || s.submitting || s.view != model.ViewTestInterface {
		s.mu.Unlock()
		return false
	}
	s.submitting = true
	s.mu.Unlock()

	s.timer.Stop()
	s.log.Info().Str("trigger", string(trigger)).Msg("Submission started")

	go s.pipeline.Run(context.WithoutCancel(ctx), s, trigger)
	return true
}

// Close leaves the session. The countdown stops; a submission already in
// flight still runs to completion.
func (s *Session) Close() {
	s.timer.Stop()

	s.mu.Lock()
	if s.view == model.ViewClosed {
		s.mu.Unlock()
		return
	}
	s.view = model.ViewClosed
	if s.endedAt.IsZero() {
		s.endedAt = time.Now()
	}
	s.mu.Unlock()

	s.subMu.Lock()
	s.subsClosed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()

	s.log.Info().Msg("Session closed")
}

// Snapshot returns the current visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Report returns the full answer review once the attempt was submitted.
func (s *Session) Report() (engine.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return engine.Report{}, ErrNotFinished
	}
	return engine.Review(s.exam, s.states), nil
}

// LiveScore scores the answers given so far.
func (s *Session) LiveScore() engine.Breakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return engine.Score(s.exam, s.states)
}

// Overview summarizes the session for the admin dashboard.
func (s *Session) Overview() Overview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Overview{
		SessionID:        s.ID,
		ExamID:           s.exam.ID,
		StudentID:        s.student.ID,
		StudentName:      s.student.Name,
		StartedAt:        s.StartedAt,
		RemainingSeconds: s.timer.Remaining(),
		Palette:          engine.Counts(s.exam, s.states),
		LiveScore:        engine.Score(s.exam, s.states).Total,
		Stage:            s.stage,
		View:             s.view,
	}
}

// Subscribe registers for pushed events. The returned cancel func removes
// the subscription and closes the channel; it is safe to call twice. Slow
// readers miss intermediate events, each of which carries a full snapshot.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.subMu.Lock()
	if s.subsClosed {
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// endedBefore reports whether the session left the test interface before t.
func (s *Session) endedBefore(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.endedAt.IsZero() && !s.submitting && s.endedAt.Before(t)
}

func (s *Session) inFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Session) acceptingLocked() bool {
	return !s.submitting && s.view == model.ViewTestInterface
}

func (s *Session) snapshotLocked() Snapshot {
	q := s.exam.Questions[s.index]
	snap := Snapshot{
		SessionID:         s.ID,
		ExamID:            s.exam.ID,
		ExamName:          s.exam.Name,
		StudentID:         s.student.ID,
		StudentName:       s.student.Name,
		CurrentIndex:      s.index,
		CurrentQuestionID: q.ID,
		TotalQuestions:    len(s.exam.Questions),
		States:            s.states.Clone(),
		Palette:           engine.Counts(s.exam, s.states),
		RemainingSeconds:  s.timer.Remaining(),
		Submitting:        s.submitting,
		Stage:             s.stage,
		StageLabel:        s.stage.Label(),
		View:              s.view,
	}
	if s.outcome != nil {
		o := *s.outcome
		snap.Outcome = &o
	}
	return snap
}

func (s *Session) broadcast(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) onTick(remaining int) {
	s.mu.Lock()
	if s.view != model.ViewTestInterface || s.submitting {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if remaining%60 == 0 {
		s.log.Debug().Int("remaining", remaining).Msg("Timer tick")
	}
	s.broadcast(Event{Kind: EventTick, Snapshot: snap})
}

func (s *Session) onExpire() {
	s.log.Info().Msg("Time is up, auto-submitting")
	s.Submit(context.Background(), model.TriggerTimerExpiry)
}

// ─── Pipeline hooks ─────────────────────────────────────────────────

func (s *Session) setStage(stage model.SubmissionStage) {
	s.mu.Lock()
	s.stage = stage
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(Event{Kind: EventStage, Snapshot: snap})
}

func (s *Session) freezeAnswers() model.AnswerStates {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states.Clone()
}

// finish always runs at the end of a pipeline, including after a panic.
// It lands the session on the result summary and clears the submission
// flag. Without a computed outcome the current answers are scored.
func (s *Session) finish(outcome *Outcome, trigger model.SubmitTrigger) {
	s.mu.Lock()
	if outcome == nil {
		outcome = newOutcome(s.exam, engine.Score(s.exam, s.states), trigger)
	}
	s.outcome = outcome
	if s.view == model.ViewTestInterface {
		s.view = model.ViewResultSummary
	}
	s.submitting = false
	s.stage = model.StageIdle
	if s.endedAt.IsZero() {
		s.endedAt = time.Now()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.doneOnce.Do(func() { close(s.done) })
	s.broadcast(Event{Kind: EventCompleted, Snapshot: snap})
}

func (s *Session) result(o *Outcome) *model.Result {
	return &model.Result{
		StudentID:      s.student.ID,
		StudentName:    s.student.Name,
		ExamID:         s.exam.ID,
		ExamName:       s.exam.Name,
		Score:          o.Total,
		TotalQuestions: len(s.exam.Questions),
		Timestamp:      o.CompletedAt,
	}
}

func newOutcome(exam *model.Exam, b engine.Breakdown, trigger model.SubmitTrigger) *Outcome {
	return &Outcome{
		Breakdown:      b,
		MaxScore:       exam.MaxScore(),
		Accuracy:       b.Accuracy(),
		TotalQuestions: len(exam.Questions),
		Trigger:        trigger,
		CompletedAt:    time.Now(),
	}
}
