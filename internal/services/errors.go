package services

// Typed errors returned to handlers, which map them onto HTTP statuses.

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// errSessionNotFound covers both a missing session and one owned by another user.
func errSessionNotFound() error {
	return &NotFoundError{Message: "Session not found or access denied"}
}
