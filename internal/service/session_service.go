package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/engine"
	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/repository"
	"github.com/apexlabs/ntamock-backend/internal/session"
)

// ErrAlreadySubmitting is returned when a submit finds a run in progress or
// the attempt already finished.
var ErrAlreadySubmitting = errors.New("submission already in progress or finished")

// SessionService connects authenticated students to their live sessions.
type SessionService struct {
	manager  *session.Manager
	exams    *ExamService
	students StudentStore
	log      zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(manager *session.Manager, exams *ExamService, students StudentStore, log zerolog.Logger) *SessionService {
	return &SessionService{
		manager:  manager,
		exams:    exams,
		students: students,
		log:      log.With().Str("component", "session_service").Logger(),
	}
}

// Start opens a session for the student. An empty examID picks the newest
// exam. Any earlier session of the student is closed.
func (s *SessionService) Start(ctx context.Context, studentID, examID string) (session.Snapshot, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return session.Snapshot{}, ErrStudentNotFound
		}
		return session.Snapshot{}, err
	}

	exam, err := s.exams.LoadForSession(ctx, examID)
	if err != nil {
		return session.Snapshot{}, err
	}

	sess, err := s.manager.Start(exam, student)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Owned returns the session if it belongs to studentID.
func (s *SessionService) Owned(studentID, sessionID string) (*session.Session, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Student().ID != studentID {
		return nil, session.ErrNotOwner
	}
	return sess, nil
}

// Active returns the student's current session.
func (s *SessionService) Active(studentID string) (session.Snapshot, error) {
	sess, err := s.manager.ActiveFor(studentID)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Get returns a snapshot of an owned session.
func (s *SessionService) Get(studentID, sessionID string) (session.Snapshot, error) {
	sess, err := s.Owned(studentID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Paper returns the rendered paper of an owned session. It is built from
// the session's own copy of the exam, so later edits or deletion of the
// exam do not reach a running attempt.
func (s *SessionService) Paper(_ context.Context, studentID, sessionID string) (*model.ExamPayload, error) {
	sess, err := s.Owned(studentID, sessionID)
	if err != nil {
		return nil, err
	}
	return BuildPayload(sess.Exam()), nil
}

// Act applies one answer action to the current question.
func (s *SessionService) Act(studentID, sessionID string, req *model.ActionRequest) (session.Snapshot, error) {
	sess, err := s.Owned(studentID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	action, err := engine.ActionFromRequest(req)
	if err != nil {
		return sess.Snapshot(), err
	}
	return sess.Apply(action)
}

// Navigate moves the current question pointer.
func (s *SessionService) Navigate(studentID, sessionID string, req *model.NavigateRequest) (session.Snapshot, error) {
	sess, err := s.Owned(studentID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Navigate(session.Direction(req.Direction), req.Index)
}

// Submit starts a manual submission. With wait set it blocks until the
// result summary is reached or ctx ends.
func (s *SessionService) Submit(ctx context.Context, studentID, sessionID string, wait bool) (session.Snapshot, error) {
	sess, err := s.Owned(studentID, sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	if !sess.Submit(ctx, model.TriggerManual) {
		return sess.Snapshot(), ErrAlreadySubmitting
	}

	if wait {
		select {
		case <-sess.Done():
		case <-ctx.Done():
		}
	}
	return sess.Snapshot(), nil
}

// Review returns the answer review of a submitted attempt.
func (s *SessionService) Review(studentID, sessionID string) (engine.Report, error) {
	sess, err := s.Owned(studentID, sessionID)
	if err != nil {
		return engine.Report{}, err
	}
	return sess.Report()
}

// Exit closes the session and forgets it.
func (s *SessionService) Exit(studentID, sessionID string) error {
	if _, err := s.Owned(studentID, sessionID); err != nil {
		return err
	}
	return s.manager.End(sessionID)
}

// List returns the admin overview of every live session.
func (s *SessionService) List() []session.Overview {
	return s.manager.List()
}
