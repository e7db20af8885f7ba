package model

import "time"

// Result is the append-only record of one completed attempt.
type Result struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	StudentName    string    `json:"student_name"`
	ExamID         string    `json:"exam_id"`
	ExamName       string    `json:"exam_name"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Timestamp      time.Time `json:"timestamp"`
}
