package engine

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/apexlabs/ntamock-backend/internal/model"
)

// Outcome classifies a single question in a finished attempt.
type Outcome string

const (
	OutcomeCorrect     Outcome = "CORRECT"
	OutcomeIncorrect   Outcome = "INCORRECT"
	OutcomeUnattempted Outcome = "UNATTEMPTED"
)

// Breakdown is the aggregate score of an attempt.
type Breakdown struct {
	Total       int `json:"total"`
	Correct     int `json:"correct"`
	Incorrect   int `json:"incorrect"`
	Unattempted int `json:"unattempted"`
}

// Accuracy is correct/(correct+incorrect) as a percentage, 0 when nothing
// was attempted.
func (b Breakdown) Accuracy() float64 {
	attempted := b.Correct + b.Incorrect
	if attempted == 0 {
		return 0
	}
	return float64(b.Correct) / float64(attempted) * 100
}

// Grade scores one question against its state.
func Grade(q model.Question, st model.AnswerState, present bool) (Outcome, int) {
	switch q.Type {
	case model.QuestionTypeMCQ:
		if !present || st.SelectedOption == nil {
			return OutcomeUnattempted, model.MarksUnanswered
		}
		if strconv.Itoa(*st.SelectedOption) == q.CorrectAnswer {
			return OutcomeCorrect, model.MarksCorrect
		}
		return OutcomeIncorrect, model.MarksWrongMCQ

	case model.QuestionTypeNAT:
		if !present || st.NumericalAnswer == nil || strings.TrimSpace(*st.NumericalAnswer) == "" {
			return OutcomeUnattempted, model.MarksUnanswered
		}
		if numericEqual(*st.NumericalAnswer, q.CorrectAnswer) {
			return OutcomeCorrect, model.MarksCorrect
		}
		// Wrong numerical answers carry no penalty.
		return OutcomeIncorrect, model.MarksUnanswered
	}
	return OutcomeUnattempted, model.MarksUnanswered
}

// Score grades every question of exam against states. It never mutates its
// inputs and gives the same result for the same inputs.
func Score(exam *model.Exam, states model.AnswerStates) Breakdown {
	var b Breakdown
	for _, q := range exam.Questions {
		st, ok := states[q.ID]
		outcome, marks := Grade(q, st, ok)
		b.Total += marks
		switch outcome {
		case OutcomeCorrect:
			b.Correct++
		case OutcomeIncorrect:
			b.Incorrect++
		default:
			b.Unattempted++
		}
	}
	return b
}

// numericEqual matches trimmed strings exactly or, failing that, by the
// longest numeric prefix of each side, so "3.14cm" equals "3.14" and
// "1.5.0" equals "1.5". A side without a numeric prefix never matches.
func numericEqual(given, key string) bool {
	g := strings.TrimSpace(given)
	k := strings.TrimSpace(key)
	if g == k {
		return true
	}
	gv, ok := leadingFloat(g)
	if !ok {
		return false
	}
	kv, ok := leadingFloat(k)
	if !ok {
		return false
	}
	return gv == kv
}

// leadingFloat parses the longest prefix of s of the form
// [sign] digits [. digits] [(e|E) [sign] digits], or a signed "Infinity".
func leadingFloat(s string) (float64, bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0, false
	}

	// An exponent only counts when digits follow it.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > start {
			i = j
		}
	}

	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
