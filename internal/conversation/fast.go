package conversation

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/internal/session"
)

// fieldAliases maps normalized block keys to record fields.
var fieldAliases = map[string]order.Field{
	"nama":                order.FieldName,
	"name":                order.FieldName,
	"pembeli":             order.FieldName,
	"seller":              order.FieldName,
	"nama pembeli":        order.FieldName,
	"nama seller":         order.FieldName,
	"nama pembeli/seller": order.FieldName,
	"no hp":               order.FieldPhone,
	"nohp":                order.FieldPhone,
	"hp":                  order.FieldPhone,
	"nomor hp":            order.FieldPhone,
	"telepon":             order.FieldPhone,
	"phone":               order.FieldPhone,
	"alamat":              order.FieldAddress,
	"address":             order.FieldAddress,
	"kategori":            order.FieldCategory,
	"category":            order.FieldCategory,
	"nama barang":         order.FieldItemName,
	"nama parfum":         order.FieldItemName,
	"barang":              order.FieldItemName,
	"parfum":              order.FieldItemName,
	"item":                order.FieldItemName,
	"varian":              order.FieldVariant,
	"variant":             order.FieldVariant,
	"ukuran":              order.FieldVariant,
	"qty":                 order.FieldQuantity,
	"jumlah":              order.FieldQuantity,
	"quantity":            order.FieldQuantity,
	"harga satuan":        order.FieldUnitPrice,
	"satuan":              order.FieldUnitPrice,
	"unit price":          order.FieldUnitPrice,
	"harga total":         order.FieldTotalPrice,
	"total":               order.FieldTotalPrice,
	"total price":         order.FieldTotalPrice,
	"link":                order.FieldLink,
	"link pembelian":      order.FieldLink,
	"url":                 order.FieldLink,
}

var (
	saleTemplate = []order.Field{
		order.FieldName, order.FieldPhone, order.FieldAddress,
		order.FieldItemName, order.FieldVariant, order.FieldQuantity, order.FieldUnitPrice,
	}
	purchaseTemplate = []order.Field{
		order.FieldName, order.FieldPhone, order.FieldAddress, order.FieldCategory,
		order.FieldItemName, order.FieldVariant, order.FieldQuantity, order.FieldTotalPrice, order.FieldLink,
	}
)

// RequiredFields lists the fields a fast block must fill for mode.
func RequiredFields(mode order.Mode) []order.Field {
	if mode == order.ModePurchase {
		return []order.Field{order.FieldName, order.FieldCategory, order.FieldQuantity, order.FieldTotalPrice}
	}
	return []order.Field{order.FieldName, order.FieldItemName, order.FieldVariant, order.FieldQuantity, order.FieldUnitPrice}
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	return strings.Join(strings.Fields(key), " ")
}

// ParseBlock reads one "key: value" pair per line. Lines without a colon,
// unknown keys and empty values are ignored; a repeated key keeps the last value.
func ParseBlock(text string) map[order.Field]string {
	fields := make(map[order.Field]string)
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx == -1 {
			continue
		}

		field, ok := fieldAliases[normalizeKey(line[:idx])]
		if !ok {
			continue
		}

		value := strings.TrimSpace(line[idx+1:])
		if value == "" {
			continue
		}
		fields[field] = value
	}
	return fields
}

func (m *Machine) fastTemplate(mode order.Mode) string {
	header := m.tr.T("fast.sale_header")
	keys := saleTemplate
	if mode == order.ModePurchase {
		header = i18n.Format(m.tr, "fast.purchase_header",
			order.CategoryNames(),
			strings.Join(order.BottleSizes, ", "),
			strings.Join(order.BlendTypes, ", "),
		)
		keys = purchaseTemplate
	}

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = string(k) + ":"
	}
	return header + "\n\n" + strings.Join(lines, "\n")
}

// fastCheck is the result of validating a parsed block: either a finished
// record or catalog suggestions for an unknown product name.
type fastCheck struct {
	record      *order.Builder
	suggestions []string
}

// validateFast runs the block checks in order: required fields, purchase
// category, Botol size, Campuran blend, Bibit catalog match, then numbers.
func (m *Machine) validateFast(mode order.Mode, fields map[order.Field]string) (fastCheck, error) {
	var missing []string
	for _, f := range RequiredFields(mode) {
		if strings.TrimSpace(fields[f]) == "" {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return fastCheck{}, apperrors.NewValidationError(i18n.Format(m.tr, "fast.missing", strings.Join(missing, ", ")))
	}

	fields = copyFields(fields)
	if mode == order.ModePurchase {
		category, ok := order.ParseCategory(fields[order.FieldCategory])
		if !ok {
			return fastCheck{}, apperrors.NewValidationError(i18n.Format(m.tr, "validation.category", order.CategoryNames()))
		}
		fields[order.FieldCategory] = string(category)

		switch category {
		case order.CategoryBotol:
			size, ok := order.MatchOption(order.BottleSizes, fields[order.FieldItemName])
			if !ok {
				return fastCheck{}, m.optionError(order.FieldItemName, order.BottleSizes)
			}
			fields[order.FieldItemName] = size
		case order.CategoryCampuran:
			blend, ok := order.MatchOption(order.BlendTypes, fields[order.FieldVariant])
			if !ok {
				return fastCheck{}, m.optionError(order.FieldVariant, order.BlendTypes)
			}
			fields[order.FieldVariant] = blend
		case order.CategoryBibit:
			name := fields[order.FieldItemName]
			if name != "" && m.catalog.Live() && m.catalog.Len() > 0 {
				if entry, ok := m.catalog.Lookup(name); ok {
					fields[order.FieldItemName] = entry.Name
				} else {
					matches := m.catalog.Search(name)
					if len(matches) == 0 {
						return fastCheck{}, apperrors.NewValidationError(i18n.Format(m.tr, "fast.item_unknown", name))
					}
					suggestions := make([]string, len(matches))
					for i, e := range matches {
						suggestions[i] = e.Name
					}
					return fastCheck{suggestions: suggestions}, nil
				}
			}
		}
	}

	qty, ok := order.ParseAmount(fields[order.FieldQuantity])
	if !ok || qty <= 0 {
		return fastCheck{}, apperrors.NewValidationError(m.tr.T("fast.quantity"))
	}
	priceField := order.PriceField(mode)
	if _, ok := order.ParseAmount(fields[priceField]); !ok {
		return fastCheck{}, apperrors.NewValidationError(i18n.Format(m.tr, "fast.amount", string(priceField)))
	}

	record := order.FromFields(mode, fields)
	if mode == order.ModeSale {
		record.Set(order.FieldCategory, string(m.saleCategory(fields[order.FieldItemName])))
		record.Unset(order.FieldLink)
	}
	record.Unset(order.DerivedPriceField(mode))
	record.Stamp(m.now())
	record.SetQuantity(qty)
	if !order.ApplyPricing(record, fields[priceField]) {
		return fastCheck{}, apperrors.NewValidationError(i18n.Format(m.tr, "fast.amount_too_large", string(priceField)))
	}

	return fastCheck{record: record}, nil
}

func (m *Machine) optionError(field order.Field, set []string) error {
	return apperrors.NewValidationError(
		i18n.Format(m.tr, "validation.option", string(field), strings.Join(set, ", ")),
	)
}

func copyFields(in map[order.Field]string) map[order.Field]string {
	out := make(map[order.Field]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// applyFast validates fields and moves s to confirmation or disambiguation.
func (m *Machine) applyFast(s *session.Session, fields map[order.Field]string) (outcome, error) {
	check, err := m.validateFast(s.Mode, fields)
	if err != nil {
		return outcome{}, err
	}

	if check.record == nil {
		s.Pending = copyFields(fields)
		s.Suggestions = check.suggestions
		s.CatalogPage = 1
		s.Step = session.StepFastDisambiguate
		return outcome{}, nil
	}

	s.Order = check.record
	s.Pending = nil
	s.Suggestions = nil
	s.CatalogPage = 0
	s.Step = session.StepConfirm
	return outcome{}, nil
}

// handleFastBlock parses a pasted block. A re-submission replaces the whole
// block; nothing from an earlier attempt is merged.
func (m *Machine) handleFastBlock(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	if ev.Kind != EventText {
		return outcome{}, m.unexpected(s)
	}
	return m.applyFast(s, ParseBlock(ev.Text))
}

// handleFastDisambiguate splices the picked catalog name into the pending
// block and validates it again. A new block replaces the pending one.
func (m *Machine) handleFastDisambiguate(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	var (
		out outcome
		err error
	)

	switch {
	case ev.Kind == EventText:
		out, err = m.applyFast(s, ParseBlock(ev.Text))
	case m.browseButton(s, ev, suggestionEntries(s.Suggestions)):
		return outcome{}, nil
	default:
		entry, picked, pickErr := m.pickedEntry(ev, suggestionEntries(s.Suggestions))
		if pickErr != nil {
			return outcome{}, pickErr
		}
		if !picked {
			return outcome{}, m.unexpected(s)
		}
		fields := copyFields(s.Pending)
		fields[order.FieldItemName] = entry.Name
		out, err = m.applyFast(s, fields)
	}

	var appErr *apperrors.AppError
	if err != nil && errors.As(err, &appErr) && appErr.Code == apperrors.CodeValidation {
		s.Pending = nil
		s.Suggestions = nil
		s.CatalogPage = 0
		s.Step = session.StepFastAwaitBlock
		return outcome{prompts: []Prompt{{Text: appErr.UserMessage}}}, nil
	}
	return out, err
}
