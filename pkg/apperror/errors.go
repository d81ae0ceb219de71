package apperror

import (
	"fmt"
)

// AppError is a structured error carrying a stable code. Session handlers
// translate these into protocol messages; codes never reach the wire.
type AppError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is makes two AppErrors equal when their codes match, so callers can use
// errors.Is against the sentinel constructors.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid email or password")
}

// ---- Account Registry (ACC) ----

func ErrDuplicateKey() *AppError {
	return New("ACC_001", "Account with the same PPS number or email already exists")
}

func ErrAccountNotFound() *AppError {
	return New("ACC_002", "Account not found")
}

// ---- Money Movement (TRF) ----

func ErrInsufficientFunds() *AppError {
	return New("TRF_001", "Insufficient funds")
}

func ErrInvalidAmount() *AppError {
	return New("TRF_002", "Invalid amount")
}

// ---- System & Infrastructure (SYS) ----

func ErrPersistence(err error) *AppError {
	return Wrap("SYS_001", "Persistence failure", err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal error", err)
}
