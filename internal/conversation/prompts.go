package conversation

import (
	"fmt"
	"strings"

	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/ledger"
	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/internal/session"
)

// promptFor renders the prompt that asks for the input of s's current step.
func (m *Machine) promptFor(s *session.Session) Prompt {
	switch s.Step {
	case session.StepChooseMode:
		return Prompt{
			Text: m.tr.T("menu.welcome"),
			Choices: [][]Choice{
				{
					{Label: m.tr.T("menu.sale"), Token: Token(ActionMode, string(order.ModeSale))},
					{Label: m.tr.T("menu.purchase"), Token: Token(ActionMode, string(order.ModePurchase))},
				},
				{{Label: m.tr.T("menu.search"), Token: Token(ActionMenu, menuSearch)}},
			},
		}
	case session.StepAwaitName:
		return m.withCancel(Prompt{Text: m.tr.T("guided.name")})
	case session.StepAwaitPhone:
		return m.withSkip(Prompt{Text: m.tr.T("guided.phone")})
	case session.StepAwaitAddress:
		return m.withSkip(Prompt{Text: m.tr.T("guided.address")})
	case session.StepAwaitCategory:
		row := make([]Choice, 0, len(order.PurchaseCategories))
		for _, c := range order.PurchaseCategories {
			row = append(row, Choice{Label: string(c), Token: Token(ActionCategory, string(c))})
		}
		return m.withCancel(Prompt{Text: m.tr.T("guided.category"), Choices: [][]Choice{row}})
	case session.StepAwaitItemName:
		return m.withCancel(Prompt{
			Text:    m.tr.T("guided.item_name"),
			Choices: [][]Choice{{{Label: m.tr.T("guided.search_button"), Token: ActionBrowse}}},
		})
	case session.StepBrowseCatalog, session.StepSearch:
		return m.renderBrowse(s, m.catalog.Search(s.CatalogQuery))
	case session.StepFastDisambiguate:
		return m.renderBrowse(s, suggestionEntries(s.Suggestions))
	case session.StepAwaitVariant:
		return m.variantPrompt(s)
	case session.StepAwaitQuantity:
		return m.withCancel(Prompt{Text: m.tr.T("guided.quantity")})
	case session.StepAwaitPrice:
		key := "guided.price_unit"
		if s.Mode == order.ModePurchase {
			key = "guided.price_total"
		}
		return m.withCancel(Prompt{Text: m.tr.T(key)})
	case session.StepAwaitLink:
		return m.withSkip(Prompt{Text: m.tr.T("guided.link")})
	case session.StepConfirm:
		return Prompt{
			Text: i18n.Format(m.tr, "confirm.summary", m.summary(ledger.Normalize(s))),
			Choices: [][]Choice{{
				{Label: m.tr.T("confirm.save_button"), Token: ActionSave},
				{Label: m.tr.T("common.cancel_button"), Token: ActionCancel},
			}},
		}
	case session.StepFastAwaitBlock:
		return m.withCancel(Prompt{Text: m.fastTemplate(s.Mode)})
	default:
		return Prompt{Text: m.tr.T("help.text")}
	}
}

// variantPrompt offers the fixed variant set of the category when it has one.
func (m *Machine) variantPrompt(s *session.Session) Prompt {
	choices := variantSet(s)
	if len(choices) == 0 {
		return m.withCancel(Prompt{Text: m.tr.T("guided.variant_free")})
	}

	key := "guided.variant_sale"
	if s.Mode == order.ModePurchase {
		switch s.Order.Category() {
		case order.CategoryBotol:
			key = "guided.variant_bottle"
		case order.CategoryCampuran:
			key = "guided.variant_blend"
		}
	}

	rows := make([][]Choice, 0, (len(choices)+1)/2)
	for i := 0; i < len(choices); i += 2 {
		row := []Choice{{Label: choices[i], Token: Token(ActionVariant, choices[i])}}
		if i+1 < len(choices) {
			row = append(row, Choice{Label: choices[i+1], Token: Token(ActionVariant, choices[i+1])})
		}
		rows = append(rows, row)
	}
	return m.withCancel(Prompt{Text: m.tr.T(key), Choices: rows})
}

// variantSet is the menu shown at the variant step: the category's fixed set
// for purchases, bottle sizes as suggestions for sales.
func variantSet(s *session.Session) []string {
	if s.Mode == order.ModeSale {
		return order.VariantChoices(order.CategoryBotol)
	}
	return order.VariantChoices(s.Order.Category())
}

func (m *Machine) searchIntro() Prompt {
	return m.withCancel(Prompt{
		Text:    m.tr.T("browse.prompt"),
		Choices: [][]Choice{{{Label: m.tr.T("browse.all_button"), Token: ActionBrowse}}},
	})
}

// summary renders a payload as "Label: Value" lines in ledger order.
func (m *Machine) summary(p ledger.Payload) string {
	fields := p.Fields()
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("%s: %s", m.tr.T("fields."+string(f.Key)), f.Value))
	}
	return strings.Join(lines, "\n")
}

func (m *Machine) withCancel(p Prompt) Prompt {
	p.Choices = append(p.Choices, []Choice{{Label: m.tr.T("common.cancel_button"), Token: ActionCancel}})
	return p
}

func (m *Machine) withSkip(p Prompt) Prompt {
	p.Choices = append(p.Choices, []Choice{
		{Label: m.tr.T("common.skip_button"), Token: ActionSkip},
		{Label: m.tr.T("common.cancel_button"), Token: ActionCancel},
	})
	return p
}
