package model

import "strings"

// QuestionStatus is the palette status of a single question.
type QuestionStatus string

const (
	StatusNotVisited        QuestionStatus = "NOT_VISITED"
	StatusNotAnswered       QuestionStatus = "NOT_ANSWERED"
	StatusAnswered          QuestionStatus = "ANSWERED"
	StatusMarkedForReview   QuestionStatus = "MARKED_FOR_REVIEW"
	StatusAnsweredAndMarked QuestionStatus = "ANSWERED_AND_MARKED_FOR_REVIEW"
)

// Marking scheme.
const (
	MarksCorrect    = 4
	MarksWrongMCQ   = -1
	MarksUnanswered = 0
)

// AnswerState is the per-question record kept by a session.
// A question without an entry is NOT_VISITED.
type AnswerState struct {
	Status          QuestionStatus `json:"status"`
	SelectedOption  *int           `json:"selected_option,omitempty"`
	NumericalAnswer *string        `json:"numerical_answer,omitempty"`
}

// HasAnswer reports whether an option is selected or a non-blank
// numerical answer is present.
func (a AnswerState) HasAnswer() bool {
	if a.SelectedOption != nil {
		return true
	}
	return a.NumericalAnswer != nil && strings.TrimSpace(*a.NumericalAnswer) != ""
}

// AnswerStates maps question id to its state.
type AnswerStates map[int]AnswerState

// Clone returns a deep copy so a frozen snapshot cannot observe later edits.
func (s AnswerStates) Clone() AnswerStates {
	out := make(AnswerStates, len(s))
	for id, st := range s {
		c := AnswerState{Status: st.Status}
		if st.SelectedOption != nil {
			v := *st.SelectedOption
			c.SelectedOption = &v
		}
		if st.NumericalAnswer != nil {
			v := *st.NumericalAnswer
			c.NumericalAnswer = &v
		}
		out[id] = c
	}
	return out
}

// StatusOf returns the status of a question, NOT_VISITED when absent.
func (s AnswerStates) StatusOf(questionID int) QuestionStatus {
	if st, ok := s[questionID]; ok && st.Status != "" {
		return st.Status
	}
	return StatusNotVisited
}
