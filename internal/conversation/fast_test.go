package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/parfum-bot/internal/catalog"
	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/ledger"
	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/internal/session"
)

const specBlock = `nama: Budi
kategori: botol
nama_barang: 25ml
qty: 3
harga_total: 75000`

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestParseBlock(t *testing.T) {
	block := `Nama : Budi
No HP: 0812-3456
nama parfum: Pink Chiffon
VARIAN: 25ml
this line has no separator
warna: merah
qty:
qty: 2
harga-satuan: Rp. 10.000
link: https://shop.example/item?id=1`

	got := ParseBlock(block)

	assert.Equal(t, map[order.Field]string{
		order.FieldName:      "Budi",
		order.FieldPhone:     "0812-3456",
		order.FieldItemName:  "Pink Chiffon",
		order.FieldVariant:   "25ml",
		order.FieldQuantity:  "2",
		order.FieldUnitPrice: "Rp. 10.000",
		order.FieldLink:      "https://shop.example/item?id=1",
	}, got)
}

func TestParseBlock_AliasesShareField(t *testing.T) {
	for _, key := range []string{"no hp", "no_hp", "No Hp", "nohp"} {
		assert.Equal(t, "1", ParseBlock(key+": 1")[order.FieldPhone], key)
	}
	for _, key := range []string{"nama parfum", "nama_barang", "Nama Barang", "nama_parfum"} {
		assert.Equal(t, "x", ParseBlock(key+": x")[order.FieldItemName], key)
	}
}

func TestFast_PurchaseBotolBlock(t *testing.T) {
	f := newFixture(t, perfumes...)
	f.command(t, CommandFastPurchase)

	prompts := f.text(t, specBlock)

	s := f.current(t)
	require.Equal(t, session.StepConfirm, s.Step)
	qty, ok := s.Order.Quantity()
	require.True(t, ok)
	assert.EqualValues(t, 3, qty)
	assert.Equal(t, "Botol", s.Order.Get(order.FieldCategory))
	assert.Equal(t, "25ml", s.Order.Get(order.FieldItemName))

	p := ledger.Normalize(s)
	assert.Equal(t, "Rp 25.000", p.Get(order.FieldUnitPrice))
	assert.Equal(t, "Rp 75.000", p.Get(order.FieldTotalPrice))

	newGolden(t).Assert(t, "fast_purchase_summary", []byte(lastPrompt(prompts).Text))
}

func TestFast_Templates(t *testing.T) {
	f := newFixture(t, perfumes...)
	g := newGolden(t)

	prompts := f.command(t, CommandFastSale)
	g.Assert(t, "fast_sale_template", []byte(prompts[0].Text))
	assert.Equal(t, []string{ActionCancel}, tokens(prompts[0]))

	prompts = f.command(t, CommandFastPurchase)
	g.Assert(t, "fast_purchase_template", []byte(prompts[0].Text))
}

func TestFast_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		command Command
		block   string
		want    string
	}{
		{
			name:    "sale missing fields",
			command: CommandFastSale,
			block:   "nama: Budi\nqty: 2",
			want:    "nama_barang, varian, harga_satuan",
		},
		{
			name:    "purchase missing fields",
			command: CommandFastPurchase,
			block:   "nama_barang: 25ml\nharga_satuan: 100",
			want:    "nama, kategori, qty, harga_total",
		},
		{
			name:    "unknown category",
			command: CommandFastPurchase,
			block:   "nama: Budi\nkategori: Kaleng\nqty: 1\nharga_total: 100",
			want:    "Bibit, Botol, Campuran",
		},
		{
			name:    "bottle size outside the set",
			command: CommandFastPurchase,
			block:   "nama: Budi\nkategori: Botol\nnama_barang: 30ml\nqty: 1\nharga_total: 100",
			want:    "Roll On, 15ml, 25ml, 35ml, 55ml, 65ml, 100ml",
		},
		{
			name:    "blend type outside the set",
			command: CommandFastPurchase,
			block:   "nama: Budi\nkategori: campuran\nvarian: Air\nqty: 1\nharga_total: 100",
			want:    "Absolute, Isopropyl, Alkohol, Fixative",
		},
		{
			name:    "quantity not numeric",
			command: CommandFastSale,
			block:   "nama: Budi\nnama_barang: X\nvarian: Y\nqty: dua\nharga_satuan: 100",
			want:    "qty",
		},
		{
			name:    "price not numeric",
			command: CommandFastPurchase,
			block:   "nama: Budi\nkategori: Botol\nnama_barang: 15ml\nqty: 2\nharga_total: gratis",
			want:    "harga_total",
		},
		{
			name:    "bibit without any similar catalog name",
			command: CommandFastPurchase,
			block:   "nama: Budi\nkategori: Bibit\nnama_barang: Vanilla\nqty: 2\nharga_total: 100",
			want:    "/cari",
		},
		{
			name:    "sale total beyond int64",
			command: CommandFastSale,
			block:   "nama: Budi\nnama_barang: X\nvarian: Y\nqty: 10000000000\nharga_satuan: Rp 1.000.000.000",
			want:    "terlalu besar",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, perfumes...)
			f.command(t, tt.command)

			_, err := f.machine.Handle(context.Background(), TextEvent(operatorID, tt.block))
			requireCode(t, err, apperrors.CodeValidation)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.UserMessage, tt.want)
			assert.Equal(t, session.StepFastAwaitBlock, f.current(t).Step)
		})
	}
}

func TestFast_ResubmissionReplacesBlock(t *testing.T) {
	f := newFixture(t, perfumes...)
	f.command(t, CommandFastSale)

	_, err := f.machine.Handle(context.Background(), TextEvent(operatorID, "nama: Budi\nqty: 2"))
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.machine.Handle(context.Background(), TextEvent(operatorID, "nama_barang: X\nvarian: Y\nharga_satuan: 100"))
	requireCode(t, err, apperrors.CodeValidation)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.UserMessage, "nama, qty")
}

func TestFast_BibitDisambiguation(t *testing.T) {
	f := newFixture(t, perfumes...)
	f.command(t, CommandFastPurchase)

	prompts := f.text(t, "nama: Budi\nkategori: bibit\nnama_barang: pink\nqty: 2\nharga_total: 50.000")

	s := f.current(t)
	require.Equal(t, session.StepFastDisambiguate, s.Step)
	assert.Equal(t, []string{"Pink Chiffon", "Guess Pink"}, s.Suggestions)
	menu := lastPrompt(prompts)
	assert.Contains(t, menu.Text, `"pink"`)
	assert.Equal(t, []string{"pick:0", "pick:1"}, tokensWith(menu, ActionPick))

	prompts = f.press(t, "pick:1")
	s = f.current(t)
	require.Equal(t, session.StepConfirm, s.Step)
	assert.Equal(t, "Guess Pink", s.Order.Get(order.FieldItemName))
	assert.Equal(t, "Bibit", s.Order.Get(order.FieldCategory))
	assert.Nil(t, s.Pending)
	assert.Contains(t, lastPrompt(prompts).Text, "Harga Satuan: Rp 25.000")

	f.press(t, ActionSave)
	assert.Equal(t, "Guess Pink", f.sink.last(t).Get(order.FieldItemName))
}

func TestFast_BibitExactMatchIsCanonicalized(t *testing.T) {
	f := newFixture(t, perfumes...)
	f.command(t, CommandFastPurchase)

	f.text(t, "nama: Budi\nkategori: Bibit\nnama_barang: avril lavigne\nqty: 1\nharga_total: 90000")

	s := f.current(t)
	require.Equal(t, session.StepConfirm, s.Step)
	assert.Equal(t, "Avril Lavigne", s.Order.Get(order.FieldItemName))
}

func TestFast_DisambiguationPickRevalidates(t *testing.T) {
	f := newFixture(t, perfumes...)
	f.command(t, CommandFastPurchase)
	f.text(t, "nama: Budi\nkategori: Bibit\nnama_barang: pink\nqty: banyak\nharga_total: 50000")
	require.Equal(t, session.StepFastDisambiguate, f.current(t).Step)

	prompts := f.press(t, "pick:0")

	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0].Text, "qty")
	s := f.current(t)
	assert.Equal(t, session.StepFastAwaitBlock, s.Step)
	assert.Nil(t, s.Pending)
}

func TestFast_DisambiguationAcceptsNewBlock(t *testing.T) {
	f := newFixture(t, perfumes...)
	f.command(t, CommandFastPurchase)
	f.text(t, "nama: Budi\nkategori: Bibit\nnama_barang: pink\nqty: 2\nharga_total: 50000")

	f.text(t, specBlock)
	assert.Equal(t, session.StepConfirm, f.current(t).Step)
}

func TestFast_BibitAdvisoryWithoutLiveCatalog(t *testing.T) {
	down := catalog.SourceFunc(func(context.Context) ([]catalog.Entry, error) {
		return nil, errors.New("sheet unreachable")
	})
	f := newFixtureWithSource(t, down)
	require.False(t, f.cache.Live())
	require.NotZero(t, f.cache.Len())

	f.command(t, CommandFastPurchase)
	f.text(t, "nama: Budi\nkategori: Bibit\nnama_barang: Oud Wood\nqty: 2\nharga_total: 50000")

	s := f.current(t)
	require.Equal(t, session.StepConfirm, s.Step)
	assert.Equal(t, "Oud Wood", s.Order.Get(order.FieldItemName))
}

func TestFast_SaleDropsPurchaseOnlyFields(t *testing.T) {
	f := newFixture(t, perfumes...)
	f.command(t, CommandFastSale)
	f.text(t, "nama: Budi\nkategori: Bibit\nnama_barang: X\nvarian: 15ml\nqty: 2\nharga_satuan: 100\nharga_total: 1\nlink: http://x")

	s := f.current(t)
	assert.Equal(t, "Manual", s.Order.Get(order.FieldCategory))
	assert.False(t, s.Order.Has(order.FieldLink))
	assert.Equal(t, "200", s.Order.Get(order.FieldTotalPrice))
}

func TestFast_SaleTakesCatalogCategory(t *testing.T) {
	f := newFixture(t, perfumes...)
	f.command(t, CommandFastSale)
	f.text(t, "nama: Budi\nkategori: Botol\nnama_barang: pink chiffon\nvarian: 15ml\nqty: 1\nharga_satuan: 100")

	s := f.current(t)
	require.Equal(t, session.StepConfirm, s.Step)
	assert.Equal(t, "Bibit", s.Order.Get(order.FieldCategory))
}
