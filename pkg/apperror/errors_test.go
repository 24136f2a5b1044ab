package apperror

import (
	"errors"
	"fmt"
	"net/http"
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
			appErr:   New("WAL_002", "Insufficient balance", http.StatusPaymentRequired),
			expected: "[WAL_002] Insufficient balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
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
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("WAL_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidAmount", ErrInvalidAmount(), "VAL_001", 400},
		{"InvalidPinFormat", ErrInvalidPinFormat(), "VAL_002", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestWalletErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"WalletNotFound", ErrWalletNotFound(), "WAL_001", 404},
		{"InsufficientBalance", ErrInsufficientBalance(), "WAL_002", 402},
		{"SelfTransfer", ErrSelfTransfer(), "WAL_003", 400},
		{"UnknownWallet", ErrUnknownWallet(), "WAL_004", 404},
		{"AlreadyActive", ErrAlreadyActive(), "WAL_005", 409},
		{"MustFundBeforeReactivation", ErrMustFundBeforeReactivation(), "WAL_006", 422},
		{"NonZeroBalance", ErrNonZeroBalance(), "WAL_007", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestPinErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidPin", ErrInvalidPin(), "PIN_001", 401},
		{"PinNotSet", ErrPinNotSet(), "PIN_002", 412},
		{"PinAlreadySet", ErrPinAlreadySet(), "PIN_003", 409},
		{"PinChangeCooldown", ErrPinChangeCooldown(), "PIN_004", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestLedgerErrors(t *testing.T) {
	assert.Equal(t, "TXN_001", ErrTransactionNotFound().Code)
	assert.Equal(t, 404, ErrTransactionNotFound().HTTPStatus)
	assert.Equal(t, "TXN_002", ErrNoTransactions().Code)
	assert.Equal(t, 404, ErrNoTransactions().HTTPStatus)
}

func TestAuthError(t *testing.T) {
	err := ErrInvalidToken()
	assert.Equal(t, "AUTH_001", err.Code)
	assert.Equal(t, 401, err.HTTPStatus)
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	sysErr := InternalError(inner)
	assert.Equal(t, "SYS_001", sysErr.Code)
	assert.Equal(t, 500, sysErr.HTTPStatus)
	assert.True(t, errors.Is(sysErr, inner))

	conflictErr := ErrConflict(inner)
	assert.Equal(t, "SYS_002", conflictErr.Code)
	assert.Equal(t, 409, conflictErr.HTTPStatus)
}

func TestValidationMessage(t *testing.T) {
	err := Validation("amount must be positive")
	assert.Equal(t, "VAL_001", err.Code)
	assert.Contains(t, err.Message, "amount must be positive")
}
