package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/parfum-bot/pkg/logger"
	"github.com/Proton-105/parfum-bot/pkg/metrics"
)

const codeUnknown = "unknown"

// Handler is where errors reaching the chat boundary are logged, counted and
// reported, and turned into the text the operator sees.
type Handler struct {
	log *slog.Logger
	// report forwards high and critical errors; nil when Sentry is off.
	report func(ctx context.Context, err error, appErr *AppError)
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{log: log}
	if sentryEnabled {
		h.report = captureSentry
	}
	return h
}

// Handle reports err and returns the operator message and whether retrying may help.
// Errors outside the taxonomy are treated as high severity with the generic message.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	appErr := classify(err)

	level := slog.LevelError
	if appErr.Severity == SeverityLow {
		level = slog.LevelWarn
	}
	h.log.LogAttrs(ctx, level, "request failed",
		slog.String("code", appErr.Code),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
		slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
		slog.String("error", err.Error()),
	)
	metrics.RecordError(appErr.Code, string(appErr.Severity))

	if h.report != nil && (appErr.Severity == SeverityHigh || appErr.Severity == SeverityCritical) {
		h.report(ctx, err, appErr)
	}

	if appErr.UserMessage == "" {
		return defaultUserMessage, appErr.Retryable
	}
	return appErr.UserMessage, appErr.Retryable
}

func classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr
	}
	return &AppError{Code: codeUnknown, Severity: SeverityHigh, cause: err}
}

func captureSentry(ctx context.Context, err error, appErr *AppError) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("code", appErr.Code)
		scope.SetTag("severity", string(appErr.Severity))
		if id := logger.CorrelationIDFromContext(ctx); id != "" {
			scope.SetTag("correlation_id", id)
		}
		hub.CaptureException(err)
	})
}

// CodeOf returns the AppError code carried by err, or an empty string.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Code
	}
	return ""
}
