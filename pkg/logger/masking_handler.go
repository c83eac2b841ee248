package logger

import (
	"context"
	"log/slog"
	"strings"
)

// maskFunc rewrites the value of a matched attribute.
type maskFunc func(slog.Value) slog.Value

func redact(slog.Value) slog.Value { return slog.StringValue("***") }

func keepTail(v slog.Value) slog.Value { return slog.StringValue(maskTail(v.String())) }

// maskRules maps a lower-cased key, or a "_"-joined suffix of one, to its mask.
// Phone numbers and addresses are customer data typed into the order flows.
var maskRules = map[string]maskFunc{
	"password":      redact,
	"token":         redact,
	"secret":        redact,
	"api_key":       redact,
	"authorization": redact,
	"dsn":           redact,
	"no_hp":         keepTail,
	"phone":         keepTail,
	"alamat":        keepTail,
	"address":       keepTail,
}

// MaskingHandler hides credentials and customer data before records reach the
// wrapped handler. Attributes bound with With and nested groups are masked too.
type MaskingHandler struct {
	next slog.Handler
}

func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = maskAttr(a)
	}
	return &MaskingHandler{next: h.next.WithAttrs(masked)}
}

func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(maskAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func maskAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		masked := make([]slog.Attr, len(group))
		for i, g := range group {
			masked[i] = maskAttr(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
	}

	if mask := ruleFor(a.Key); mask != nil {
		a.Value = mask(a.Value)
	}
	return a
}

func ruleFor(key string) maskFunc {
	key = strings.ToLower(key)
	if mask, ok := maskRules[key]; ok {
		return mask
	}
	for i := strings.IndexByte(key, '_'); i >= 0; {
		if mask, ok := maskRules[key[i+1:]]; ok {
			return mask
		}
		next := strings.IndexByte(key[i+1:], '_')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil
}

// maskTail keeps the last three runes visible.
func maskTail(value string) string {
	runes := []rune(value)
	if len(runes) <= 3 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-3) + string(runes[len(runes)-3:])
}
