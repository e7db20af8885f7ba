package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// QuestionType distinguishes single-correct MCQs from numerical answer questions.
type QuestionType string

const (
	QuestionTypeMCQ QuestionType = "MCQ"
	QuestionTypeNAT QuestionType = "NAT"
)

// Difficulty is the authoring difficulty tag of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Subject is one of the paper subjects a question belongs to.
type Subject string

const (
	SubjectPhysics     Subject = "Physics"
	SubjectChemistry   Subject = "Chemistry"
	SubjectMathematics Subject = "Mathematics"
	SubjectAptitude    Subject = "Aptitude"
	SubjectDrawing     Subject = "Drawing/Planning"
)

// Section groups questions by type: A holds MCQs, B holds NATs.
type Section string

const (
	SectionA Section = "A"
	SectionB Section = "B"
)

// OptionCount is the fixed number of options on every MCQ.
const OptionCount = 4

// Question validation errors.
var (
	ErrQuestionText        = errors.New("question text is required")
	ErrQuestionOptions     = errors.New("MCQ must have exactly 4 options")
	ErrQuestionNATOptions  = errors.New("NAT must not carry options")
	ErrQuestionAnswerKey   = errors.New("invalid correct answer")
	ErrQuestionType        = errors.New("unknown question type")
	ErrDuplicateQuestionID = errors.New("duplicate question id")
)

// Question is a single exam item. CorrectAnswer holds the stringified option
// index ("0".."3") for MCQs and a numeric string for NATs.
type Question struct {
	ID            int          `json:"id"`
	Subject       Subject      `json:"subject"`
	Type          QuestionType `json:"type"`
	Difficulty    Difficulty   `json:"difficulty"`
	Section       Section      `json:"section"`
	Text          string       `json:"text"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
}

// Validate checks the per-type invariants of a question.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %d: %w", q.ID, ErrQuestionText)
	}

	switch q.Type {
	case QuestionTypeMCQ:
		if len(q.Options) != OptionCount {
			return fmt.Errorf("question %d: %w", q.ID, ErrQuestionOptions)
		}
		idx, err := strconv.Atoi(q.CorrectAnswer)
		if err != nil || idx < 0 || idx >= OptionCount {
			return fmt.Errorf("question %d: %w", q.ID, ErrQuestionAnswerKey)
		}
	case QuestionTypeNAT:
		if len(q.Options) != 0 {
			return fmt.Errorf("question %d: %w", q.ID, ErrQuestionNATOptions)
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return fmt.Errorf("question %d: %w", q.ID, ErrQuestionAnswerKey)
		}
	default:
		return fmt.Errorf("question %d: %w", q.ID, ErrQuestionType)
	}
	return nil
}

// QuestionForStudent is a question without its answer key.
type QuestionForStudent struct {
	ID         int          `json:"id"`
	Subject    Subject      `json:"subject"`
	Type       QuestionType `json:"type"`
	Difficulty Difficulty   `json:"difficulty"`
	Section    Section      `json:"section"`
	Text       string       `json:"text"`
	TextHTML   string       `json:"text_html"`
	Options    []string     `json:"options,omitempty"`
	OptionHTML []string     `json:"options_html,omitempty"`
}

// QuestionInput is the authoring payload for a single question.
type QuestionInput struct {
	ID            int      `json:"id" binding:"required,min=1"`
	Subject       string   `json:"subject" binding:"required,oneof=Physics Chemistry Mathematics Aptitude Drawing/Planning"`
	Type          string   `json:"type" binding:"required,oneof=MCQ NAT"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=EASY MEDIUM HARD"`
	Section       string   `json:"section" binding:"required,oneof=A B"`
	Text          string   `json:"text" binding:"required,max=10000"`
	Options       []string `json:"options" binding:"omitempty,len=4,dive,required"`
	CorrectAnswer string   `json:"correct_answer" binding:"required,max=64"`
}

// ToQuestion converts the authoring payload into a Question.
func (in QuestionInput) ToQuestion() Question {
	return Question{
		ID:            in.ID,
		Subject:       Subject(in.Subject),
		Type:          QuestionType(in.Type),
		Difficulty:    Difficulty(in.Difficulty),
		Section:       Section(in.Section),
		Text:          in.Text,
		Options:       in.Options,
		CorrectAnswer: strings.TrimSpace(in.CorrectAnswer),
	}
}
