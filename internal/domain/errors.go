package domain

import (
	"fmt"
)

// AppError is an error that carries the client-facing code, message and HTTP status.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so wrapped copies made by
// WithError still satisfy errors.Is against the predefined values.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// WithMessage returns a copy with a request-specific message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrInvalidRequest = &AppError{
		Code:       "INVALID_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrStudentNotFound = &AppError{
		Code:       "STUDENT_NOT_FOUND",
		Message:    "Student not found. Check the ID or RFID tag.",
		StatusCode: 404,
	}

	ErrInactiveAccount = &AppError{
		Code:       "INACTIVE_ACCOUNT",
		Message:    "Student account is inactive.",
		StatusCode: 403,
	}

	ErrEventNotFound = &AppError{
		Code:       "EVENT_NOT_FOUND",
		Message:    "Event not found.",
		StatusCode: 404,
	}

	// ErrAlreadyCheckedIn is returned by stores when the (student, event)
	// pair already has a record. The check-in service turns it into an outcome.
	ErrAlreadyCheckedIn = &AppError{
		Code:       "ALREADY_CHECKED_IN",
		Message:    "Student is already checked in.",
		StatusCode: 409,
	}

	ErrStorage = &AppError{
		Code:       "STORAGE_FAILURE",
		Message:    "Check-in failed. Server error.",
		StatusCode: 500,
	}
)
