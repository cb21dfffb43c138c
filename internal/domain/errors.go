package domain

import "errors"

var (
	// ErrQuizNotFound indicates the code does not resolve to a published quiz.
	ErrQuizNotFound = errors.New("quiz not found or not published")
	// ErrEmptyQuiz indicates the resolved quiz has no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrSessionConflict indicates a session already occupies the scope.
	ErrSessionConflict = errors.New("a quiz is already running in this scope")
	// ErrSessionNotFound indicates there is no live session for the scope.
	ErrSessionNotFound = errors.New("no active quiz session")
)
