package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrInvalidPinFormat() *AppError {
	return New("VAL_002", "PIN must be 4 digits", http.StatusBadRequest)
}

// Validation returns a VAL_001-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Wallet (WAL) ----

func ErrWalletNotFound() *AppError {
	return New("WAL_001", "Wallet not found", http.StatusNotFound)
}

func ErrInsufficientBalance() *AppError {
	return New("WAL_002", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrSelfTransfer() *AppError {
	return New("WAL_003", "Cannot transfer to your own wallet", http.StatusBadRequest)
}

func ErrUnknownWallet() *AppError {
	return New("WAL_004", "Unknown wallet id", http.StatusNotFound)
}

func ErrAlreadyActive() *AppError {
	return New("WAL_005", "Wallet is already active", http.StatusConflict)
}

func ErrMustFundBeforeReactivation() *AppError {
	return New("WAL_006", "Wallet has to be funded before it can be reactivated", http.StatusUnprocessableEntity)
}

func ErrNonZeroBalance() *AppError {
	return New("WAL_007", "Cannot delete wallet with non-zero balance", http.StatusConflict)
}

// ---- PIN (PIN) ----

func ErrInvalidPin() *AppError {
	return New("PIN_001", "Incorrect PIN", http.StatusUnauthorized)
}

func ErrPinNotSet() *AppError {
	return New("PIN_002", "Transaction PIN has not been set", http.StatusPreconditionFailed)
}

func ErrPinAlreadySet() *AppError {
	return New("PIN_003", "Transaction PIN already set", http.StatusConflict)
}

func ErrPinChangeCooldown() *AppError {
	return New("PIN_004", "PIN cannot be changed yet", http.StatusForbidden)
}

// ---- Ledger (TXN) ----

func ErrTransactionNotFound() *AppError {
	return New("TXN_001", "Transaction not found", http.StatusNotFound)
}

func ErrNoTransactions() *AppError {
	return New("TXN_002", "No transactions found for the given range", http.StatusNotFound)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an unexpected storage or internal failure.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrConflict wraps lock/version contention; safe for the caller to retry.
func ErrConflict(err error) *AppError {
	return Wrap("SYS_002", "Operation conflicted with a concurrent update, retry", http.StatusConflict, err)
}
