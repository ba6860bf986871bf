package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrPermissionDenied
	ErrInternal
	ErrSlotConflict
	ErrDoctorOnLeave
	ErrDuplicateLeave
	ErrAlreadyApproved
	ErrNotApproved
	ErrDelivery
)

// StatusCode maps error codes to HTTP statuses, consumed by the error middleware.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrPermissionDenied:
		return http.StatusForbidden
	case ErrSlotConflict, ErrDoctorOnLeave, ErrDuplicateLeave, ErrAlreadyApproved, ErrNotApproved:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func PermissionDenied(message string) *AppError {
	return &AppError{
		Code:    ErrPermissionDenied,
		Message: message,
	}
}

// Internal wraps infrastructure failures. The caller-facing message stays
// generic so store details never leak.
func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func SlotConflict(doctor, date, start, end string) *AppError {
	return &AppError{
		Code:    ErrSlotConflict,
		Message: fmt.Sprintf("doctor %s already has an appointment on %s between %s and %s", doctor, date, start, end),
	}
}

func DoctorOnLeave(doctor, leaveStart, leaveEnd string) *AppError {
	return &AppError{
		Code:    ErrDoctorOnLeave,
		Message: fmt.Sprintf("doctor %s is on approved leave from %s to %s", doctor, leaveStart, leaveEnd),
	}
}

func DuplicateLeave(doctor, leaveStart, leaveEnd string) *AppError {
	return &AppError{
		Code:    ErrDuplicateLeave,
		Message: fmt.Sprintf("doctor %s already has approved leave overlapping %s to %s", doctor, leaveStart, leaveEnd),
	}
}

func AlreadyApproved(leaveID string) *AppError {
	return &AppError{
		Code:    ErrAlreadyApproved,
		Message: fmt.Sprintf("leave %s is already approved", leaveID),
	}
}

func NotApproved(leaveID string) *AppError {
	return &AppError{
		Code:    ErrNotApproved,
		Message: fmt.Sprintf("leave %s is not approved", leaveID),
	}
}

func Delivery(recipient string, err error) *AppError {
	return &AppError{
		Code:    ErrDelivery,
		Message: fmt.Sprintf("failed to deliver notification to %s", recipient),
		Err:     err,
	}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
