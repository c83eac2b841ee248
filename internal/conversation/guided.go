package conversation

import (
	"context"
	"strings"

	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/internal/session"
)

func (m *Machine) unexpected(s *session.Session) error {
	return apperrors.NewStateError("unexpected input at step " + string(s.Step))
}

func (m *Machine) handleName(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	if ev.Kind != EventText {
		return outcome{}, m.unexpected(s)
	}
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return outcome{}, apperrors.NewValidationError(m.tr.T("validation.name"))
	}

	s.Order.Set(order.FieldName, name)
	s.Step = session.StepAwaitPhone
	return outcome{}, nil
}

// optionalText returns the text of a text event, or empty for a skip press.
func optionalText(ev Event) (string, bool) {
	switch ev.Kind {
	case EventText:
		return strings.TrimSpace(ev.Text), true
	case EventButton:
		if action, _ := SplitToken(ev.Token); action == ActionSkip {
			return "", true
		}
	}
	return "", false
}

func (m *Machine) handlePhone(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	phone, ok := optionalText(ev)
	if !ok {
		return outcome{}, m.unexpected(s)
	}

	s.Order.Set(order.FieldPhone, phone)
	s.Step = session.StepAwaitAddress
	return outcome{}, nil
}

func (m *Machine) handleAddress(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	address, ok := optionalText(ev)
	if !ok {
		return outcome{}, m.unexpected(s)
	}

	s.Order.Set(order.FieldAddress, address)
	if s.Mode == order.ModePurchase {
		s.Step = session.StepAwaitCategory
	} else {
		s.Step = session.StepAwaitItemName
	}
	return outcome{}, nil
}

// handleCategory branches on the purchase category: Botol and Campuran go
// straight to their fixed variant menus, Bibit to catalog-assisted naming.
func (m *Machine) handleCategory(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	raw := ev.Text
	if ev.Kind == EventButton {
		action, data := SplitToken(ev.Token)
		if action != ActionCategory {
			return outcome{}, m.unexpected(s)
		}
		raw = data
	}

	category, ok := order.ParseCategory(raw)
	if !ok {
		return outcome{}, apperrors.NewValidationError(i18n.Format(m.tr, "validation.category", order.CategoryNames()))
	}

	s.Order.Set(order.FieldCategory, string(category))
	s.Order.Unset(order.FieldItemName)
	s.Order.Unset(order.FieldVariant)
	if order.VariantChoices(category) != nil {
		s.Step = session.StepAwaitVariant
	} else {
		s.Step = session.StepAwaitItemName
	}
	return outcome{}, nil
}

// handleItemName binds an exact catalog match, shows substring matches for a
// partial name, and accepts free text when nothing matches.
func (m *Machine) handleItemName(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	if ev.Kind == EventButton {
		if action, _ := SplitToken(ev.Token); action == ActionBrowse {
			s.CatalogQuery = ""
			s.CatalogPage = 1
			s.Typed = ""
			s.Step = session.StepBrowseCatalog
			return outcome{}, nil
		}
		return outcome{}, m.unexpected(s)
	}

	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return outcome{}, apperrors.NewValidationError(m.tr.T("validation.item_name"))
	}

	if entry, ok := m.catalog.Lookup(name); ok {
		return m.bindItem(s, entry.Name), nil
	}

	if matches := m.catalog.Search(name); len(matches) > 0 {
		s.CatalogQuery = name
		s.CatalogPage = 1
		s.Typed = name
		s.Step = session.StepBrowseCatalog
		return outcome{}, nil
	}

	return m.bindItem(s, name), nil
}

// bindItem stores the item name. Sales take the category from the catalog,
// Manual when the name is not listed; purchases keep the chosen category.
func (m *Machine) bindItem(s *session.Session, name string) outcome {
	s.Order.Set(order.FieldItemName, name)
	if s.Mode == order.ModeSale {
		s.Order.Set(order.FieldCategory, string(m.saleCategory(name)))
	}
	s.CatalogQuery = ""
	s.CatalogPage = 0
	s.Typed = ""
	s.Step = session.StepAwaitVariant
	return outcome{prompts: []Prompt{{Text: i18n.Format(m.tr, "guided.item_selected", name)}}}
}

// handleBrowse treats typed text as a new keyword and offers it as the item
// name too, so a name missing from the catalog can still be recorded.
func (m *Machine) handleBrowse(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	if ev.Kind == EventText {
		keyword := strings.TrimSpace(ev.Text)
		s.CatalogQuery = keyword
		s.CatalogPage = 1
		if keyword != "" {
			s.Typed = keyword
		}
		return outcome{}, nil
	}
	results := m.catalog.Search(s.CatalogQuery)
	if m.browseButton(s, ev, results) {
		return outcome{}, nil
	}
	if action, _ := SplitToken(ev.Token); action == ActionTyped && s.Typed != "" {
		return m.bindItem(s, s.Typed), nil
	}

	entry, picked, err := m.pickedEntry(ev, results)
	if err != nil {
		return outcome{}, err
	}
	if !picked {
		return outcome{}, m.unexpected(s)
	}
	return m.bindItem(s, entry.Name), nil
}

// handleVariant enforces the fixed variant set of Botol and Campuran
// purchases. Sales offer bottle sizes but accept any text.
func (m *Machine) handleVariant(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	raw := ev.Text
	if ev.Kind == EventButton {
		action, data := SplitToken(ev.Token)
		if action != ActionVariant {
			return outcome{}, m.unexpected(s)
		}
		raw = data
	}
	raw = strings.TrimSpace(raw)

	category := s.Order.Category()
	if s.Mode == order.ModePurchase {
		if set := order.VariantChoices(category); set != nil {
			variant, ok := order.MatchOption(set, raw)
			if !ok {
				return outcome{}, apperrors.NewValidationError(
					i18n.Format(m.tr, "validation.option", m.tr.T("fields.varian"), strings.Join(set, ", ")),
				)
			}
			raw = variant
		}
	} else if variant, ok := order.MatchOption(variantSet(s), raw); ok {
		raw = variant
	}

	if raw == "" {
		return outcome{}, apperrors.NewValidationError(m.tr.T("validation.variant_empty"))
	}

	s.Order.Set(order.FieldVariant, raw)
	if s.Mode == order.ModePurchase {
		switch category {
		case order.CategoryBotol:
			s.Order.Set(order.FieldItemName, raw)
		case order.CategoryCampuran:
			s.Order.Set(order.FieldItemName, string(order.CategoryCampuran))
		}
	}
	s.Step = session.StepAwaitQuantity
	return outcome{}, nil
}

// handleQuantity re-prompts on anything that is not a positive integer and
// leaves the quantity unset.
func (m *Machine) handleQuantity(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	if ev.Kind != EventText {
		return outcome{}, m.unexpected(s)
	}

	qty, ok := order.ParseAmount(ev.Text)
	if !ok || qty <= 0 {
		return outcome{}, apperrors.NewValidationError(m.tr.T("validation.quantity"))
	}

	s.Order.SetQuantity(qty)
	s.Step = session.StepAwaitPrice
	return outcome{}, nil
}

// handlePrice accepts any text. Unparseable prices are kept verbatim and the
// derived price is marked unknown.
func (m *Machine) handlePrice(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	if ev.Kind != EventText {
		return outcome{}, m.unexpected(s)
	}

	if !order.ApplyPricing(s.Order, ev.Text) {
		m.log.Info("price kept unparsed", "user_id", s.UserID, "input", ev.Text)
	}

	if s.Mode == order.ModePurchase {
		s.Step = session.StepAwaitLink
	} else {
		s.Step = session.StepConfirm
	}
	return outcome{}, nil
}

func (m *Machine) handleLink(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	link, ok := optionalText(ev)
	if !ok {
		return outcome{}, m.unexpected(s)
	}

	s.Order.Set(order.FieldLink, link)
	s.Step = session.StepConfirm
	return outcome{}, nil
}

// handleConfirm saves on the save button and re-renders the summary for any
// other input. Cancel is handled before dispatch.
func (m *Machine) handleConfirm(ctx context.Context, s *session.Session, ev Event) (outcome, error) {
	if ev.Kind == EventButton {
		if action, _ := SplitToken(ev.Token); action == ActionSave {
			return m.submit(ctx, s)
		}
	}
	return outcome{}, nil
}
