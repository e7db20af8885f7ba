package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLocked   = errors.New("session is not accepting input")
	ErrNotOwner        = errors.New("session belongs to another student")
	ErrNotFinished     = errors.New("session has not been submitted")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrNoExam          = errors.New("session requires an exam with questions")
	ErrNoStudent       = errors.New("session requires a student")
)
