package order

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnknownPrice is displayed for a price that could not be derived.
const UnknownPrice = "Rp -"

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// ParseAmount extracts the integer formed by every digit in s, so
// "Rp. 10.000" yields 10000. It reports false when s has no digits.
func ParseAmount(s string) (int64, bool) {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatRupiah renders n as "Rp " followed by dot-grouped thousands.
func FormatRupiah(n int64) string {
	return "Rp " + rupiahPrinter.Sprintf("%d", n)
}

// IsAmount reports whether s is a canonical digit string produced by the builder.
func IsAmount(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PriceField returns the field the operator supplies for mode: the unit price
// for sales, the total for purchases.
func PriceField(mode Mode) Field {
	if mode == ModePurchase {
		return FieldTotalPrice
	}
	return FieldUnitPrice
}

// DerivedPriceField returns the field computed from the supplied price.
func DerivedPriceField(mode Mode) Field {
	if mode == ModePurchase {
		return FieldUnitPrice
	}
	return FieldTotalPrice
}

// ApplyPricing stores the operator's price input and derives the other price
// field from the quantity. Unparseable input, or a total that does not fit in
// int64, is kept verbatim and the derived field becomes UnknownPrice. It
// reports whether a price was derived.
func ApplyPricing(b *Builder, input string) bool {
	mode := b.Mode()
	supplied := PriceField(mode)
	derived := DerivedPriceField(mode)

	amount, ok := ParseAmount(input)
	qty, hasQty := b.Quantity()
	if ok && hasQty {
		var value int64
		if mode == ModePurchase {
			value = amount / qty
		} else {
			value, ok = multiply(amount, qty)
		}
		if ok {
			b.Set(supplied, strconv.FormatInt(amount, 10))
			b.Set(derived, strconv.FormatInt(value, 10))
			return true
		}
	}

	b.Set(supplied, strings.TrimSpace(input))
	b.Set(derived, UnknownPrice)
	return false
}

// multiply returns a*b for non-negative operands, or false on overflow.
func multiply(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}
