// Package order holds the transaction record accumulated during a conversation.
package order

import "strings"

// Mode identifies the transaction type chosen when a session starts.
type Mode string

const (
	// ModeSale records a sale to a customer.
	ModeSale Mode = "Penjualan"
	// ModePurchase records a purchase from a supplier.
	ModePurchase Mode = "Pembelian"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSale || m == ModePurchase
}

// ParseMode converts a button token or label into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "penjualan", "jual", "sale":
		return ModeSale, true
	case "pembelian", "beli", "purchase":
		return ModePurchase, true
	default:
		return "", false
	}
}

// Category classifies purchased goods.
type Category string

const (
	CategoryBibit    Category = "Bibit"
	CategoryBotol    Category = "Botol"
	CategoryCampuran Category = "Campuran"
	// CategoryManual marks items without a known catalog category.
	CategoryManual Category = "Manual"
)

// PurchaseCategories lists the categories accepted for purchases, in menu order.
var PurchaseCategories = []Category{CategoryBibit, CategoryBotol, CategoryCampuran}

// ParseCategory normalizes s into one of the purchase categories.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range PurchaseCategories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// CategoryNames returns the purchase category names joined for display.
func CategoryNames() string {
	names := make([]string, len(PurchaseCategories))
	for i, c := range PurchaseCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// BottleSizes is the fixed variant set for bottled goods.
var BottleSizes = []string{"Roll On", "15ml", "25ml", "35ml", "55ml", "65ml", "100ml"}

// BlendTypes is the fixed variant set for blending ingredients.
var BlendTypes = []string{"Absolute", "Isopropyl", "Alkohol", "Fixative"}

var variantChoices = map[Category][]string{
	CategoryBotol:    BottleSizes,
	CategoryCampuran: BlendTypes,
}

// VariantChoices returns a copy of the fixed variant set for category, or nil
// when the category accepts free-text variants.
func VariantChoices(category Category) []string {
	set, ok := variantChoices[category]
	if !ok {
		return nil
	}
	out := make([]string, len(set))
	copy(out, set)
	return out
}

// MatchOption finds s in set ignoring case and surrounding space, returning the
// canonical spelling.
func MatchOption(set []string, s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, opt := range set {
		if strings.EqualFold(opt, s) {
			return opt, true
		}
	}
	return "", false
}
