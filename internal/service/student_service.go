package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/model"
	"github.com/apexlabs/ntamock-backend/internal/repository"
)

// ErrStudentNotFound is returned for unknown student IDs.
var ErrStudentNotFound = errors.New("student not found")

// StudentService manages the candidate roster.
type StudentService struct {
	students StudentStore
	log      zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(students StudentStore, log zerolog.Logger) *StudentService {
	return &StudentService{
		students: students,
		log:      log.With().Str("component", "student_service").Logger(),
	}
}

// Save registers a student, or updates one when req.ID names an existing row.
func (s *StudentService) Save(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	st := &model.Student{
		ID:         strings.TrimSpace(req.ID),
		Name:       strings.TrimSpace(req.Name),
		RollNumber: strings.TrimSpace(req.RollNumber),
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if err := s.students.Upsert(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info().Str("student_id", st.ID).Str("roll_number", st.RollNumber).Msg("Student saved")
	return st, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*model.Student, error) {
	st, err := s.students.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrStudentNotFound
	}
	return st, err
}

// List returns every student.
func (s *StudentService) List(ctx context.Context) ([]model.Student, error) {
	return s.students.List(ctx)
}

// Delete removes a student. Their past results are kept.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	err := s.students.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrStudentNotFound
	}
	return err
}
