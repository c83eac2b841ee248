package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	testCases := []struct {
		input  string
		want   Category
		wantOK bool
	}{
		{input: "botol", want: CategoryBotol, wantOK: true},
		{input: " CAMPURAN ", want: CategoryCampuran, wantOK: true},
		{input: "Bibit", want: CategoryBibit, wantOK: true},
		{input: "Manual", wantOK: false},
		{input: "kaca", wantOK: false},
	}

	for _, tc := range testCases {
		got, ok := ParseCategory(tc.input)
		assert.Equal(t, tc.wantOK, ok, tc.input)
		assert.Equal(t, tc.want, got, tc.input)
	}
}

func TestVariantChoices(t *testing.T) {
	assert.Len(t, VariantChoices(CategoryBotol), 7)
	assert.Len(t, VariantChoices(CategoryCampuran), 4)
	assert.Nil(t, VariantChoices(CategoryBibit))

	choices := VariantChoices(CategoryBotol)
	choices[0] = "mutated"
	assert.Equal(t, "Roll On", VariantChoices(CategoryBotol)[0])
}

func TestMatchOption(t *testing.T) {
	got, ok := MatchOption(BottleSizes, "roll on")
	assert.True(t, ok)
	assert.Equal(t, "Roll On", got)

	_, ok = MatchOption(BlendTypes, "air")
	assert.False(t, ok)
}

func TestBuilderQuantity(t *testing.T) {
	b := NewBuilder(ModeSale)
	_, ok := b.Quantity()
	assert.False(t, ok)
	assert.False(t, b.Has(FieldQuantity))

	b.SetQuantity(4)
	qty, ok := b.Quantity()
	assert.True(t, ok)
	assert.Equal(t, int64(4), qty)

	clone := b.Clone()
	clone.Set(FieldName, "Budi")
	assert.False(t, b.Has(FieldName))
}
