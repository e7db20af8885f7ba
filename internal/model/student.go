package model

import "time"

// Student is a candidate identified by a unique roll number.
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RollNumber string    `json:"roll_number"`
	CreatedAt  time.Time `json:"created_at"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	RollNumber string `json:"roll_number" binding:"required,rollnumber"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}

// CreateStudentRequest is the payload for registering a student.
type CreateStudentRequest struct {
	ID         string `json:"id" binding:"omitempty,max=64"`
	Name       string `json:"name" binding:"required,min=2,max=100"`
	RollNumber string `json:"roll_number" binding:"required,rollnumber"`
}
