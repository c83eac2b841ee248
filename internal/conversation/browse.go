package conversation

import (
	"context"
	"strings"

	"github.com/Proton-105/parfum-bot/internal/catalog"
	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/internal/session"
)

// renderBrowse shows one page of entries with pick buttons and navigation.
// Pick tokens carry the index into the full result list.
func (m *Machine) renderBrowse(s *session.Session, entries []catalog.Entry) Prompt {
	page := catalog.Paginate(entries, s.CatalogPage, m.pageSize)

	var text string
	switch {
	case s.Step == session.StepFastDisambiguate:
		text = i18n.Format(m.tr, "fast.disambiguate", s.Pending[order.FieldItemName])
	case page.Total == 0:
		text = m.tr.T("browse.empty")
	case strings.TrimSpace(s.CatalogQuery) == "":
		text = i18n.Format(m.tr, "browse.results_all", page.Total)
	default:
		text = i18n.Format(m.tr, "browse.results", s.CatalogQuery, page.Total)
	}

	rows := make([][]Choice, 0, len(page.Entries)+3)
	for i, e := range page.Entries {
		rows = append(rows, []Choice{{Label: e.Name, Token: indexToken(ActionPick, page.Offset+i)}})
	}
	if page.Pages > 1 {
		rows = append(rows, m.paginationRow(page))
	}
	if s.Step == session.StepBrowseCatalog && s.Typed != "" {
		rows = append(rows, []Choice{{Label: i18n.Format(m.tr, "browse.typed_button", s.Typed), Token: ActionTyped}})
	}

	return m.withCancel(Prompt{Text: text, Choices: rows})
}

// paginationRow returns prev, current and next buttons sharing the page action.
func (m *Machine) paginationRow(page catalog.Page) []Choice {
	row := make([]Choice, 0, 3)
	if page.HasPrev() {
		row = append(row, Choice{Label: m.tr.T("pagination.prev"), Token: indexToken(ActionPage, page.Number-1)})
	}
	row = append(row, Choice{
		Label: i18n.Format(m.tr, "pagination.page", page.Number, page.Pages),
		Token: indexToken(ActionPage, page.Number),
	})
	if page.HasNext() {
		row = append(row, Choice{Label: m.tr.T("pagination.next"), Token: indexToken(ActionPage, page.Number+1)})
	}
	return row
}

// browseButton applies the navigation buttons shared by every browse view.
// It reports whether the event was one of them. Page numbers are clamped
// against entries, the list currently shown.
func (m *Machine) browseButton(s *session.Session, ev Event, entries []catalog.Entry) bool {
	if ev.Kind != EventButton {
		return false
	}

	action, data := SplitToken(ev.Token)
	switch action {
	case ActionPage:
		if n, ok := tokenIndex(data); ok {
			s.CatalogPage = catalog.Paginate(entries, n, m.pageSize).Number
			return true
		}
	case ActionBrowse:
		s.CatalogQuery = ""
		s.CatalogPage = 1
		return true
	}
	return false
}

// pickedEntry resolves a pick token against entries.
func (m *Machine) pickedEntry(ev Event, entries []catalog.Entry) (catalog.Entry, bool, error) {
	if ev.Kind != EventButton {
		return catalog.Entry{}, false, nil
	}
	action, data := SplitToken(ev.Token)
	if action != ActionPick {
		return catalog.Entry{}, false, nil
	}

	i, ok := tokenIndex(data)
	if !ok || i >= len(entries) {
		return catalog.Entry{}, true, apperrors.NewValidationError(m.tr.T("validation.choice"))
	}
	return entries[i], true, nil
}

func suggestionEntries(names []string) []catalog.Entry {
	entries := make([]catalog.Entry, len(names))
	for i, name := range names {
		entries[i] = catalog.Entry{Name: name}
	}
	return entries
}

// handleSearch drives the standalone, read-only catalog search.
func (m *Machine) handleSearch(_ context.Context, s *session.Session, ev Event) (outcome, error) {
	if ev.Kind == EventText {
		s.CatalogQuery = strings.TrimSpace(ev.Text)
		s.CatalogPage = 1
		return outcome{}, nil
	}
	results := m.catalog.Search(s.CatalogQuery)
	if m.browseButton(s, ev, results) {
		return outcome{}, nil
	}

	entry, picked, err := m.pickedEntry(ev, results)
	if err != nil {
		return outcome{}, err
	}
	if picked {
		category := string(entry.Category)
		if category == "" {
			category = string(order.CategoryManual)
		}
		return outcome{
			prompts: []Prompt{{Text: i18n.Format(m.tr, "browse.entry", entry.Name, category)}},
			quiet:   true,
		}, nil
	}

	return outcome{}, apperrors.NewStateError("unexpected input while searching")
}

// saleCategory is the catalog category of a sold item, Manual when the name
// is not listed.
func (m *Machine) saleCategory(name string) order.Category {
	if category, ok := m.catalog.CategoryOf(name); ok && category != "" {
		return category
	}
	return order.CategoryManual
}
