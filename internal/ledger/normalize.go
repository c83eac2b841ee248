// Package ledger turns finished sessions into flat records and submits them
// to the spreadsheet ledger.
package ledger

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/internal/session"
)

// Field is one key/value pair of a Payload, in ledger column order.
type Field struct {
	Key   order.Field
	Value string
}

// Payload is the flat record expected by the ledger. Every ledger key is
// always present.
type Payload struct {
	values map[order.Field]string
}

// Normalize converts the session's accumulated fields into a Payload. It never
// fails: absent fields become empty strings and canonical amounts are rendered
// as Rupiah.
func Normalize(s *session.Session) Payload {
	values := make(map[order.Field]string, len(order.LedgerFields))
	for _, key := range order.LedgerFields {
		values[key] = ""
	}
	if s == nil {
		return Payload{values: values}
	}

	b := s.Order
	for _, key := range order.LedgerFields {
		values[key] = strings.TrimSpace(b.Get(key))
	}

	values[order.FieldMode] = string(s.Mode)
	if qty, ok := b.Quantity(); ok {
		values[order.FieldQuantity] = strconv.FormatInt(qty, 10)
	}

	for _, key := range []order.Field{order.FieldUnitPrice, order.FieldTotalPrice} {
		values[key] = formatPrice(values[key])
	}

	return Payload{values: values}
}

func formatPrice(raw string) string {
	if !order.IsAmount(raw) {
		return raw
	}
	n, ok := order.ParseAmount(raw)
	if !ok {
		return raw
	}
	return order.FormatRupiah(n)
}

// Get returns the value stored under key.
func (p Payload) Get(key order.Field) string {
	return p.values[key]
}

// Fields returns the payload in ledger column order.
func (p Payload) Fields() []Field {
	out := make([]Field, 0, len(order.LedgerFields))
	for _, key := range order.LedgerFields {
		out = append(out, Field{Key: key, Value: p.values[key]})
	}
	return out
}

// Values returns the payload as form values.
func (p Payload) Values() url.Values {
	form := make(url.Values, len(order.LedgerFields))
	for _, key := range order.LedgerFields {
		form.Set(string(key), p.values[key])
	}
	return form
}
