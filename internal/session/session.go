package session

import (
	"time"

	"github.com/Proton-105/parfum-bot/internal/order"
)

// Flow selects which step graph governs a session.
type Flow string

const (
	// FlowGuided asks for one field per message.
	FlowGuided Flow = "guided"
	// FlowFast accepts a whole record pasted as one key: value block.
	FlowFast Flow = "fast"
	// FlowSearch browses the catalog without recording a transaction.
	FlowSearch Flow = "search"
)

// Step is a position in a flow's step graph.
type Step string

const (
	// StepChooseMode shows the main menu after /start.
	StepChooseMode Step = "choose_mode"
	// StepAwaitName expects the counterparty name.
	StepAwaitName Step = "await_name"
	// StepAwaitPhone expects the counterparty phone number.
	StepAwaitPhone Step = "await_phone"
	// StepAwaitAddress expects the counterparty address.
	StepAwaitAddress Step = "await_address"
	// StepAwaitCategory expects a purchase category.
	StepAwaitCategory Step = "await_category"
	// StepAwaitItemName expects the product name.
	StepAwaitItemName Step = "await_item_name"
	// StepBrowseCatalog shows paginated catalog entries for selection.
	StepBrowseCatalog Step = "browse_catalog"
	// StepAwaitVariant expects the product variant.
	StepAwaitVariant Step = "await_variant"
	// StepAwaitQuantity expects a positive quantity.
	StepAwaitQuantity Step = "await_quantity"
	// StepAwaitPrice expects the unit price (sale) or total price (purchase).
	StepAwaitPrice Step = "await_price"
	// StepAwaitLink expects an optional purchase link.
	StepAwaitLink Step = "await_link"
	// StepConfirm shows the summary and waits for save or cancel.
	StepConfirm Step = "confirm"
	// StepFastAwaitBlock expects a pasted key: value block.
	StepFastAwaitBlock Step = "fast_await_block"
	// StepFastDisambiguate offers catalog matches for an unknown product name.
	StepFastDisambiguate Step = "fast_disambiguate"
	// StepSearch accepts catalog keywords.
	StepSearch Step = "search"
)

// Session is one user's in-progress transaction entry.
type Session struct {
	UserID int64
	Mode   order.Mode
	Flow   Flow
	Step   Step
	Order  *order.Builder

	// CatalogQuery is the active browse keyword; empty lists every entry.
	CatalogQuery string
	// CatalogPage is the 1-based page shown while browsing.
	CatalogPage int
	// Typed keeps free text entered at the item-name step while matches are shown.
	Typed string

	// Suggestions are the catalog names offered during fast-flow disambiguation.
	Suggestions []string
	// Pending holds the parsed fast-flow block awaiting a product choice.
	Pending map[order.Field]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns a session at the given starting step.
func New(userID int64, flow Flow, mode order.Mode, step Step) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:    userID,
		Mode:      mode,
		Flow:      flow,
		Step:      step,
		Order:     order.NewBuilder(mode),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetMode fixes the transaction mode. It has no effect once a mode is chosen.
func (s *Session) SetMode(mode order.Mode) {
	if s.Mode != "" {
		return
	}
	s.Mode = mode
	s.Order = order.NewBuilder(mode)
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	copied := *s
	copied.Order = s.Order.Clone()
	if s.Suggestions != nil {
		copied.Suggestions = append([]string(nil), s.Suggestions...)
	}
	if s.Pending != nil {
		copied.Pending = make(map[order.Field]string, len(s.Pending))
		for k, v := range s.Pending {
			copied.Pending[k] = v
		}
	}
	return &copied
}
