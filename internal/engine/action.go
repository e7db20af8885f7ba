package engine

import (
	"fmt"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

// ActionKind enumerates the answer actions a student can take on the
// current question.
type ActionKind string

const (
	ActionSelectOption         ActionKind = "select_option"
	ActionSetNumerical         ActionKind = "set_numerical"
	ActionClear                ActionKind = "clear"
	ActionSaveAndNext          ActionKind = "save_and_next"
	ActionSaveAndMarkForReview ActionKind = "save_and_mark_for_review"
	ActionMarkForReviewAndNext ActionKind = "mark_for_review_and_next"
)

// Action is one student input. Option is used by SelectOption, Value by
// SetNumerical.
type Action struct {
	Kind   ActionKind
	Option int
	Value  string
}

func SelectOption(idx int) Action    { return Action{Kind: ActionSelectOption, Option: idx} }
func SetNumerical(raw string) Action { return Action{Kind: ActionSetNumerical, Value: raw} }
func Clear() Action                  { return Action{Kind: ActionClear} }
func SaveAndNext() Action            { return Action{Kind: ActionSaveAndNext} }
func SaveAndMarkForReview() Action   { return Action{Kind: ActionSaveAndMarkForReview} }
func MarkForReviewAndNext() Action   { return Action{Kind: ActionMarkForReviewAndNext} }

// ActionFromRequest maps the wire request onto an Action.
func ActionFromRequest(req *model.ActionRequest) (Action, error) {
	kind := ActionKind(req.Action)
	switch kind {
	case ActionSelectOption:
		if req.Option == nil {
			return Action{}, ErrInvalidOption
		}
		return SelectOption(*req.Option), nil
	case ActionSetNumerical:
		return SetNumerical(req.Value), nil
	case ActionClear, ActionSaveAndNext, ActionSaveAndMarkForReview, ActionMarkForReviewAndNext:
		return Action{Kind: kind}, nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
}
