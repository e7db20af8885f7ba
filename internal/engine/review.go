package engine

import "github.com/apexlabs/ntamock-backend/internal/model"

// QuestionReview is one row of the post-submission answer review.
type QuestionReview struct {
	QuestionID      int                  `json:"question_id"`
	Subject         model.Subject        `json:"subject"`
	Type            model.QuestionType   `json:"type"`
	Status          model.QuestionStatus `json:"status"`
	SelectedOption  *int                 `json:"selected_option,omitempty"`
	NumericalAnswer *string              `json:"numerical_answer,omitempty"`
	CorrectAnswer   string               `json:"correct_answer"`
	Outcome         Outcome              `json:"outcome"`
	Marks           int                  `json:"marks"`
}

// SubjectBreakdown is the score of one subject.
type SubjectBreakdown struct {
	Subject model.Subject `json:"subject"`
	Breakdown
	MaxScore int `json:"max_score"`
}

// Report is the full result view of an attempt.
type Report struct {
	Breakdown
	MaxScore       int                `json:"max_score"`
	Accuracy       float64            `json:"accuracy"`
	TotalQuestions int                `json:"total_questions"`
	Subjects       []SubjectBreakdown `json:"subjects"`
	Questions      []QuestionReview   `json:"questions"`
}

// Review builds the per-question and per-subject report. Its Breakdown is
// identical to Score for the same inputs.
func Review(exam *model.Exam, states model.AnswerStates) Report {
	r := Report{
		MaxScore:       exam.MaxScore(),
		TotalQuestions: len(exam.Questions),
		Questions:      make([]QuestionReview, 0, len(exam.Questions)),
	}

	bySubject := make(map[model.Subject]int)
	for _, q := range exam.Questions {
		st, ok := states[q.ID]
		outcome, marks := Grade(q, st, ok)

		idx, seen := bySubject[q.Subject]
		if !seen {
			idx = len(r.Subjects)
			bySubject[q.Subject] = idx
			r.Subjects = append(r.Subjects, SubjectBreakdown{Subject: q.Subject})
		}
		sub := &r.Subjects[idx]
		sub.MaxScore += model.MarksCorrect
		sub.Total += marks
		r.Total += marks

		switch outcome {
		case OutcomeCorrect:
			sub.Correct++
			r.Correct++
		case OutcomeIncorrect:
			sub.Incorrect++
			r.Incorrect++
		default:
			sub.Unattempted++
			r.Unattempted++
		}

		r.Questions = append(r.Questions, QuestionReview{
			QuestionID:      q.ID,
			Subject:         q.Subject,
			Type:            q.Type,
			Status:          states.StatusOf(q.ID),
			SelectedOption:  st.SelectedOption,
			NumericalAnswer: st.NumericalAnswer,
			CorrectAnswer:   q.CorrectAnswer,
			Outcome:         outcome,
			Marks:           marks,
		})
	}

	r.Accuracy = r.Breakdown.Accuracy()
	return r
}
