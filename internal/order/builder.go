package order

import (
	"strconv"
	"time"
)

// Field names a record attribute. Values match the ledger's form keys.
type Field string

const (
	FieldMode       Field = "mode"
	FieldDate       Field = "tanggal"
	FieldName       Field = "nama"
	FieldPhone      Field = "no_hp"
	FieldAddress    Field = "alamat"
	FieldCategory   Field = "kategori"
	FieldItemName   Field = "nama_barang"
	FieldVariant    Field = "varian"
	FieldQuantity   Field = "qty"
	FieldTotalPrice Field = "harga_total"
	FieldUnitPrice  Field = "harga_satuan"
	FieldLink       Field = "link"
)

// LedgerFields is the full key set, in ledger column order.
var LedgerFields = []Field{
	FieldMode,
	FieldDate,
	FieldName,
	FieldPhone,
	FieldAddress,
	FieldCategory,
	FieldItemName,
	FieldVariant,
	FieldQuantity,
	FieldTotalPrice,
	FieldUnitPrice,
	FieldLink,
}

// DateLayout formats the record timestamp.
const DateLayout = "2006-01-02 15:04:05"

// Builder accumulates the fields of one in-progress transaction.
type Builder struct {
	fields map[Field]string
}

// NewBuilder returns an empty Builder for the given mode.
func NewBuilder(mode Mode) *Builder {
	b := &Builder{fields: make(map[Field]string)}
	if mode != "" {
		b.fields[FieldMode] = string(mode)
	}
	return b
}

// FromFields builds a Builder pre-populated with fields.
func FromFields(mode Mode, fields map[Field]string) *Builder {
	b := NewBuilder(mode)
	for k, v := range fields {
		b.fields[k] = v
	}
	return b
}

// Mode returns the transaction mode.
func (b *Builder) Mode() Mode {
	return Mode(b.Get(FieldMode))
}

// Set stores value under field.
func (b *Builder) Set(field Field, value string) {
	if b.fields == nil {
		b.fields = make(map[Field]string)
	}
	b.fields[field] = value
}

// Get returns the value of field, or an empty string.
func (b *Builder) Get(field Field) string {
	if b == nil {
		return ""
	}
	return b.fields[field]
}

// Has reports whether field has been set.
func (b *Builder) Has(field Field) bool {
	if b == nil {
		return false
	}
	_, ok := b.fields[field]
	return ok
}

// Unset removes field.
func (b *Builder) Unset(field Field) {
	if b == nil {
		return
	}
	delete(b.fields, field)
}

// Stamp records the transaction timestamp.
func (b *Builder) Stamp(now time.Time) {
	b.Set(FieldDate, now.Format(DateLayout))
}

// SetQuantity stores a positive quantity.
func (b *Builder) SetQuantity(qty int64) {
	b.Set(FieldQuantity, strconv.FormatInt(qty, 10))
}

// Quantity returns the stored quantity, or false when it is unset or invalid.
func (b *Builder) Quantity() (int64, bool) {
	raw := b.Get(FieldQuantity)
	if raw == "" {
		return 0, false
	}
	qty, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || qty <= 0 {
		return 0, false
	}
	return qty, true
}

// Category returns the stored category.
func (b *Builder) Category() Category {
	return Category(b.Get(FieldCategory))
}

// Fields returns a copy of all populated fields.
func (b *Builder) Fields() map[Field]string {
	out := make(map[Field]string, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of b.
func (b *Builder) Clone() *Builder {
	if b == nil {
		return nil
	}
	return &Builder{fields: b.Fields()}
}
