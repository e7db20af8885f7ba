package engine

import "github.com/apexlabs/ntamock-backend/internal/model"

// PaletteCounts tallies questions per status. Questions without an entry
// count as NOT_VISITED.
type PaletteCounts struct {
	NotVisited        int `json:"not_visited"`
	NotAnswered       int `json:"not_answered"`
	Answered          int `json:"answered"`
	MarkedForReview   int `json:"marked_for_review"`
	AnsweredAndMarked int `json:"answered_and_marked_for_review"`
}

// Counts computes the palette legend counts for exam.
func Counts(exam *model.Exam, states model.AnswerStates) PaletteCounts {
	var c PaletteCounts
	for _, q := range exam.Questions {
		switch states.StatusOf(q.ID) {
		case model.StatusNotAnswered:
			c.NotAnswered++
		case model.StatusAnswered:
			c.Answered++
		case model.StatusMarkedForReview:
			c.MarkedForReview++
		case model.StatusAnsweredAndMarked:
			c.AnsweredAndMarked++
		default:
			c.NotVisited++
		}
	}
	return c
}

// Sum is the number of questions covered by the counts.
func (c PaletteCounts) Sum() int {
	return c.NotVisited + c.NotAnswered + c.Answered + c.MarkedForReview + c.AnsweredAndMarked
}
