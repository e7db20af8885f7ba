// Package engine holds the pure exam rules: how answer actions change a
// question's status and how a finished attempt is scored.
package engine

import (
	"errors"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

// Contract violations. The session drops the action and keeps its state.
var (
	ErrInvalidOption = errors.New("option index out of range")
	ErrWrongType     = errors.New("action does not apply to this question type")
	ErrUnknownAction = errors.New("unknown action")
)

// Apply computes the next state of q after action a. A zero cur means the
// question has no entry yet. advance reports whether the session should
// move to the next question.
func Apply(q model.Question, cur model.AnswerState, a Action) (next model.AnswerState, advance bool, err error) {
	next = cur

	switch a.Kind {
	case ActionSelectOption:
		if q.Type != model.QuestionTypeMCQ {
			return cur, false, ErrWrongType
		}
		if a.Option < 0 || a.Option >= model.OptionCount {
			return cur, false, ErrInvalidOption
		}
		opt := a.Option
		next.SelectedOption = &opt
		next.Status = model.StatusAnswered

	case ActionSetNumerical:
		if q.Type != model.QuestionTypeNAT {
			return cur, false, ErrWrongType
		}
		raw := a.Value
		next.NumericalAnswer = &raw
		next.Status = model.StatusAnswered

	case ActionClear:
		next = model.AnswerState{Status: model.StatusNotAnswered}

	case ActionSaveAndNext:
		if cur.HasAnswer() {
			next.Status = model.StatusAnswered
		} else {
			next.Status = model.StatusNotAnswered
		}
		advance = true

	case ActionSaveAndMarkForReview:
		if cur.HasAnswer() {
			next.Status = model.StatusAnsweredAndMarked
		} else {
			next.Status = model.StatusMarkedForReview
		}
		advance = true

	case ActionMarkForReviewAndNext:
		next.Status = model.StatusMarkedForReview
		advance = true

	default:
		return cur, false, ErrUnknownAction
	}

	return next, advance, nil
}
