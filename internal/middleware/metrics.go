package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/bot/handlers"
	"github.com/Proton-105/parfum-bot/internal/bot/keyboard"
	"github.com/Proton-105/parfum-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(updateLabel(c), status, time.Since(start))

		return err
	}
}

// updateLabel keeps label cardinality bounded: callback actions without their data,
// command names, or "text".
func updateLabel(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		action, _, err := keyboard.DecodeCallback(cb.Data)
		if err != nil {
			return "unknown"
		}
		return "button:" + action
	}

	if name := commandName(c.Text()); name != "" {
		return "command:" + name
	}

	return "text"
}

// commandName returns "cari" for "/cari@parfum_bot kata".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	return strings.ToLower(name)
}
