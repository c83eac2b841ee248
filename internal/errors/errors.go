// Package errors defines the application error taxonomy and its handling helpers.
package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	CodeValidation      = "E100"
	CodeAuthorization   = "E110"
	CodeSessionNotFound = "E120"
	CodeCatalogFetch    = "E300"
	CodeLedgerSubmit    = "E310"
	CodeState           = "E400"
	CodeRateLimit       = "E500"
	CodeInternal        = "E900"
)

const defaultUserMessage = "⚠️ Terjadi kesalahan. Silakan coba lagi nanti."

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError reports operator input that must be re-entered.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		UserMessage: "❗ " + msg,
		Severity:    SeverityLow,
	}
}

// NewAuthorizationError rejects a user outside the allow-list.
func NewAuthorizationError(userID int64) *AppError {
	return &AppError{
		Code:        CodeAuthorization,
		Message:     fmt.Sprintf("user %d is not authorized", userID),
		UserMessage: "❌ Maaf, Anda tidak memiliki izin untuk menggunakan bot ini.",
		Severity:    SeverityLow,
	}
}

// NewSessionNotFoundError reports an event for a user without an active session.
func NewSessionNotFoundError(userID int64) *AppError {
	return &AppError{
		Code:        CodeSessionNotFound,
		Message:     fmt.Sprintf("no active session for user %d", userID),
		UserMessage: "ℹ️ Tidak ada sesi aktif. Ketik /start untuk memulai.",
		Severity:    SeverityLow,
	}
}

// NewCatalogFetchError wraps a failure to load the product catalog.
func NewCatalogFetchError(cause error, retryable bool) *AppError {
	return &AppError{
		Code:        CodeCatalogFetch,
		Message:     "catalog fetch failed",
		UserMessage: "⚠️ Daftar parfum gagal dimuat, memakai data sebelumnya.",
		Severity:    SeverityMedium,
		Retryable:   retryable,
		cause:       cause,
	}
}

// NewLedgerSubmitError wraps a failure to post a finished record.
func NewLedgerSubmitError(cause error) *AppError {
	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}

	return &AppError{
		Code:        CodeLedgerSubmit,
		Message:     "ledger submit failed",
		UserMessage: fmt.Sprintf("⚠️ Gagal simpan data: %s", reason),
		Severity:    SeverityHigh,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        CodeState,
		Message:     msg,
		UserMessage: "Operasi tidak bisa dilakukan pada langkah ini.",
		Severity:    SeverityMedium,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("⏳ Terlalu banyak permintaan. Coba lagi dalam %d detik.", retryAfter),
		Severity:    SeverityLow,
	}
}

// NewInternalError wraps unexpected failures such as recovered panics.
func NewInternalError(cause error) *AppError {
	return &AppError{
		Code:        CodeInternal,
		Message:     "internal error",
		UserMessage: defaultUserMessage,
		Severity:    SeverityCritical,
		cause:       cause,
	}
}
