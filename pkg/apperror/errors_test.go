package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("TRF_001", "Insufficient funds"),
			expected: "[TRF_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "Persistence failure", fmt.Errorf("disk full")),
			expected: "[SYS_001] Persistence failure: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("TRF_002", "test")
	assert.Nil(t, appErr.Unwrap())
}

func TestAppError_IsByCode(t *testing.T) {
	assert.True(t, errors.Is(ErrInsufficientFunds(), ErrInsufficientFunds()))
	assert.True(t, errors.Is(Wrap("ACC_001", "other text", nil), ErrDuplicateKey()))
	assert.False(t, errors.Is(ErrDuplicateKey(), ErrAccountNotFound()))
}

func TestDomainErrors_Codes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code string
	}{
		{ErrInvalidCredentials(), "AUTH_001"},
		{ErrDuplicateKey(), "ACC_001"},
		{ErrAccountNotFound(), "ACC_002"},
		{ErrInsufficientFunds(), "TRF_001"},
		{ErrInvalidAmount(), "TRF_002"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}
