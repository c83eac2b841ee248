package conversation

import (
	"context"
	"log/slog"

	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/ledger"
	"github.com/Proton-105/parfum-bot/internal/session"
)

// submit posts the record once and clears the session whatever the outcome.
func (m *Machine) submit(ctx context.Context, s *session.Session) (outcome, error) {
	payload := ledger.Normalize(s)
	err := m.sink.Submit(ctx, payload)

	if clearErr := m.sessions.Clear(ctx, s.UserID); clearErr != nil {
		m.log.Error("failed to clear session after submit", slog.Int64("user_id", s.UserID), slog.Any("error", clearErr))
	}

	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.NewLedgerSubmitError(err)
		}
		return outcome{}, err
	}

	m.log.Info("record saved",
		slog.Int64("user_id", s.UserID),
		slog.String("mode", string(s.Mode)),
		slog.String("flow", string(s.Flow)),
	)
	return outcome{
		prompts: []Prompt{{Text: i18n.Format(m.tr, "confirm.saved", m.summary(payload))}},
		done:    true,
	}, nil
}
