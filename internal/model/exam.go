package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrExamEmpty is returned when an exam has no questions.
var ErrExamEmpty = errors.New("exam has no questions")

// Exam is an ordered set of questions taken under a single countdown.
type Exam struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	DurationMinutes int        `json:"duration_minutes"`
	Questions       []Question `json:"questions"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Validate checks question-level invariants and id uniqueness.
func (e *Exam) Validate() error {
	if len(e.Questions) == 0 {
		return ErrExamEmpty
	}
	seen := make(map[int]struct{}, len(e.Questions))
	for i := range e.Questions {
		q := &e.Questions[i]
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("question %d: %w", q.ID, ErrDuplicateQuestionID)
		}
		seen[q.ID] = struct{}{}
		if err := q.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MaxScore is the best achievable total under the marking scheme.
func (e *Exam) MaxScore() int {
	return len(e.Questions) * MarksCorrect
}

// ExamSummary is the list view of an exam.
type ExamSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summary returns the list view of the exam.
func (e *Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:              e.ID,
		Name:            e.Name,
		DurationMinutes: e.DurationMinutes,
		QuestionCount:   len(e.Questions),
		CreatedAt:       e.CreatedAt,
	}
}

// ExamPayload is the Redis-cached paper sent to students (no answer keys).
type ExamPayload struct {
	ExamID          string               `json:"exam_id"`
	Name            string               `json:"name"`
	DurationMinutes int                  `json:"duration_minutes"`
	Questions       []QuestionForStudent `json:"questions"`
}

// SaveExamRequest is the payload for creating or replacing an exam.
type SaveExamRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=255"`
	DurationMinutes int             `json:"duration_minutes" binding:"min=0,max=600"`
	Questions       []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// ToExam converts the request into an Exam with the given id.
func (r *SaveExamRequest) ToExam(id string) *Exam {
	questions := make([]Question, len(r.Questions))
	for i, in := range r.Questions {
		questions[i] = in.ToQuestion()
	}
	return &Exam{
		ID:              id,
		Name:            r.Name,
		DurationMinutes: r.DurationMinutes,
		Questions:       questions,
	}
}

// GenerateExamRequest asks the question generator for a draft paper.
type GenerateExamRequest struct {
	PaperType       string   `json:"paper_type" binding:"required,oneof=PAPER_1 PAPER_2"`
	Subjects        []string `json:"subjects" binding:"omitempty,dive,oneof=Physics Chemistry Mathematics Aptitude Drawing/Planning"`
	Name            string   `json:"name" binding:"omitempty,max=255"`
	DurationMinutes int      `json:"duration_minutes" binding:"omitempty,min=1,max=600"`
}

// RenderRequest is the payload for previewing math markup.
type RenderRequest struct {
	Text string `json:"text" binding:"required,max=20000"`
}
