package service

import (
	"context"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

// ExamStore is the exam persistence used by ExamService.
type ExamStore interface {
	Upsert(ctx context.Context, e *model.Exam) error
	GetByID(ctx context.Context, id string) (*model.Exam, error)
	Latest(ctx context.Context) (*model.Exam, error)
	List(ctx context.Context) ([]model.Exam, error)
	Delete(ctx context.Context, id string) error
}

// StudentStore is the student persistence used by auth and management.
type StudentStore interface {
	Upsert(ctx context.Context, s *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByRollNumber(ctx context.Context, roll string) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	Delete(ctx context.Context, id string) error
}

// ResultReader reads persisted results.
type ResultReader interface {
	List(ctx context.Context, examID string) ([]model.Result, error)
	GetByID(ctx context.Context, id string) (*model.Result, error)
}
