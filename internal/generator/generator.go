// Package generator drafts exam papers with an OpenAI-compatible chat
// completions endpoint (OpenRouter by default).
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

// PaperType selects the subject set of a paper.
type PaperType string

const (
	Paper1 PaperType = "PAPER_1"
	Paper2 PaperType = "PAPER_2"
)

var (
	ErrNotConfigured     = errors.New("question generation is not configured")
	ErrRateLimited       = errors.New("generator rate limited")
	ErrUpstream          = errors.New("generator upstream error")
	ErrEmptyDraft        = errors.New("generator returned no usable questions")
	ErrNoSubjects        = errors.New("no subjects selected")
	ErrSubjectNotInPaper = errors.New("subject not part of paper")
)

// SubjectsFor returns the subjects a paper covers.
func SubjectsFor(p PaperType) []model.Subject {
	if p == Paper2 {
		return []model.Subject{model.SubjectMathematics, model.SubjectAptitude, model.SubjectDrawing}
	}
	return []model.Subject{model.SubjectPhysics, model.SubjectChemistry, model.SubjectMathematics}
}

// ResolveSubjects validates a subject selection against the paper. An empty
// selection means every subject of the paper.
func ResolveSubjects(p PaperType, selected []string) ([]model.Subject, error) {
	allowed := SubjectsFor(p)
	if len(selected) == 0 {
		return allowed, nil
	}

	out := make([]model.Subject, 0, len(selected))
	seen := make(map[model.Subject]bool, len(selected))
	for _, raw := range selected {
		sub := model.Subject(raw)
		ok := false
		for _, a := range allowed {
			if a == sub {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSubjectNotInPaper, raw)
		}
		if !seen[sub] {
			seen[sub] = true
			out = append(out, sub)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSubjects
	}
	return out, nil
}

// Request describes one draft paper.
type Request struct {
	Subjects      []model.Subject
	MCQPerSubject int
	NATPerSubject int
}

// Draft is a generated, unsaved question set.
type Draft struct {
	Questions []model.Question `json:"questions"`
	Skipped   int              `json:"skipped"`
	Subjects  []model.Subject  `json:"subjects"`
}

// Provider produces draft questions.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Draft, error)
	IsAvailable() bool
}

// Config configures the chat completions client.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	MaxRetries    int
	Backoff       time.Duration
	Timeout       time.Duration
	MCQPerSubject int
	NATPerSubject int
	Referer       string
	Title         string
}
