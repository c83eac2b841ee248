package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/pkg/metrics"
)

// DefaultSubmitTimeout bounds one ledger POST.
const DefaultSubmitTimeout = 15 * time.Second

// Sink accepts finished records.
type Sink interface {
	Submit(ctx context.Context, p Payload) error
}

// HTTPSink posts records as form data to a Google Apps Script endpoint.
// Submissions are attempted once.
type HTTPSink struct {
	url     string
	client  *http.Client
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
}

// NewHTTPSink creates an HTTPSink. A nil client gets a default one with the
// given timeout.
func NewHTTPSink(endpoint string, client *http.Client, timeout time.Duration, log *slog.Logger) *HTTPSink {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = slog.Default()
	}

	return &HTTPSink{
		url:     endpoint,
		client:  client,
		breaker: apperrors.NewCircuitBreaker(apperrors.BreakerSettings{
			Name:          "ledger",
			OnStateChange: recordBreakerState,
		}),
		log:     log,
	}
}

// Submit posts p. Any transport failure, open breaker, or non-2xx response is
// returned as a LedgerSubmitError.
func (s *HTTPSink) Submit(ctx context.Context, p Payload) error {
	mode := p.Get(order.FieldMode)

	err := s.breaker.Call(func() error {
		return s.post(ctx, p)
	})
	metrics.RecordLedgerSubmission(mode, err)

	if err != nil {
		s.log.Error("ledger submit failed",
			slog.String("mode", mode),
			slog.String("breaker", s.breaker.State().String()),
			slog.Any("error", err),
		)
		return apperrors.NewLedgerSubmitError(err)
	}

	s.log.Info("ledger record submitted",
		slog.String("mode", mode),
		slog.String("item", p.Get(order.FieldItemName)),
	)
	return nil
}

func (s *HTTPSink) post(ctx context.Context, p Payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(p.Values().Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// HealthCheck fails while the circuit breaker is open.
func (s *HTTPSink) HealthCheck(context.Context) error {
	if state := s.breaker.State(); state == apperrors.StateOpen {
		return fmt.Errorf("ledger circuit %s: %w", state, apperrors.ErrCircuitOpen)
	}
	return nil
}

func recordBreakerState(name string, _, to apperrors.State) {
	metrics.SetBreakerState(name, int(to))
}
