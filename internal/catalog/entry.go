// Package catalog keeps the reference list of product names and their
// purchase categories.
package catalog

import (
	"context"

	"github.com/Proton-105/parfum-bot/internal/order"
)

// Entry is one catalog product.
type Entry struct {
	Name     string
	Category order.Category
}

// Source loads a full catalog snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]Entry, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// fallbackNames are common Bibit products kept so browsing still offers
// something when the catalog sheet has never loaded.
var fallbackNames = []string{
	"Baccarat Rouge",
	"Black Opium",
	"Bvlgari Aqva",
	"Coco Mademoiselle",
	"Creed Aventus",
	"Dior Sauvage",
	"La Vie Est Belle",
	"YSL Libre",
}

// Fallback is installed when the catalog has never been loaded successfully.
func Fallback() []Entry {
	entries := make([]Entry, len(fallbackNames))
	for i, name := range fallbackNames {
		entries[i] = Entry{Name: name, Category: order.CategoryBibit}
	}
	return entries
}

func normalizeCategory(raw string) order.Category {
	if c, ok := order.ParseCategory(raw); ok {
		return c
	}
	return order.CategoryManual
}
