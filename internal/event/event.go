// Package event publishes domain events to a RabbitMQ topic exchange for
// downstream consumers such as analytics or notification services.
package event

import (
	"time"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

// Type is the routing key of an event.
type Type string

const (
	TypeResultRecorded Type = "result.recorded"
	TypeExamSaved      Type = "exam.saved"
)

// ResultRecorded is emitted once a result is durably stored.
type ResultRecorded struct {
	EventType      Type      `json:"event_type"`
	ResultID       string    `json:"result_id"`
	StudentID      string    `json:"student_id"`
	ExamID         string    `json:"exam_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	SubmittedAt    time.Time `json:"submitted_at"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewResultRecorded builds the event for res.
func NewResultRecorded(res *model.Result) ResultRecorded {
	return ResultRecorded{
		EventType:      TypeResultRecorded,
		ResultID:       res.ID,
		StudentID:      res.StudentID,
		ExamID:         res.ExamID,
		Score:          res.Score,
		TotalQuestions: res.TotalQuestions,
		SubmittedAt:    res.Timestamp,
		OccurredAt:     time.Now().UTC(),
	}
}

// ExamSaved is emitted when an admin creates or replaces an exam.
type ExamSaved struct {
	EventType      Type      `json:"event_type"`
	ExamID         string    `json:"exam_id"`
	Name           string    `json:"name"`
	TotalQuestions int       `json:"total_questions"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewExamSaved builds the event for e.
func NewExamSaved(e *model.Exam) ExamSaved {
	return ExamSaved{
		EventType:      TypeExamSaved,
		ExamID:         e.ID,
		Name:           e.Name,
		TotalQuestions: len(e.Questions),
		OccurredAt:     time.Now().UTC(),
	}
}
