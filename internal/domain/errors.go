package domain

import "errors"

var (
	// ErrSessionNotFound is returned when an action arrives for an id with no active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNameTaken is returned when the username already has a leaderboard entry in the category.
	ErrNameTaken = errors.New("username already taken in this category")
	// ErrInvalidName indicates an empty username.
	ErrInvalidName = errors.New("invalid username")
	// ErrHintUnavailable indicates the hint was spent or the question is double-value.
	ErrHintUnavailable = errors.New("hint unavailable")
	// ErrInvalidOption indicates the answer is not among the currently offered options.
	ErrInvalidOption = errors.New("option not offered")
	// ErrAlreadyResolved signals that the current question was already scored; callers treat it as a no-op.
	ErrAlreadyResolved = errors.New("question already resolved")
	// ErrWrongPhase indicates the operation does not apply to the session's current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")
	// ErrStoreUnavailable indicates the leaderboard backend could not be read or written.
	ErrStoreUnavailable = errors.New("leaderboard store unavailable")
	// ErrCategoryNotFound indicates the question bank has no questions for the category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrInvalidQuestion indicates a malformed question record.
	ErrInvalidQuestion = errors.New("invalid question")
)
