package conversation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Proton-105/parfum-bot/internal/auth"
	"github.com/Proton-105/parfum-bot/internal/catalog"
	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/ledger"
	"github.com/Proton-105/parfum-bot/internal/order"
	"github.com/Proton-105/parfum-bot/internal/session"
)

// Catalog is the read side of the catalog cache used while conversing.
type Catalog interface {
	Refresh(ctx context.Context) (int, error)
	Search(keyword string) []catalog.Entry
	Lookup(name string) (catalog.Entry, bool)
	CategoryOf(name string) (order.Category, bool)
	Len() int
	Live() bool
}

// Deps wires the machine's collaborators.
type Deps struct {
	Sessions   session.Registry
	Catalog    Catalog
	Sink       ledger.Sink
	Auth       auth.Authorizer
	Translator i18n.Translator
	Logger     *slog.Logger
	// PageSize is the number of catalog entries per page.
	PageSize int
	Now      func() time.Time
}

// outcome is what a step handler produced besides the session mutation.
type outcome struct {
	// prompts are sent before the prompt of the resulting step.
	prompts []Prompt
	// done means the session was cleared and no step prompt follows.
	done bool
	// quiet saves the session without re-sending the step prompt.
	quiet bool
}

type stepHandler func(ctx context.Context, s *session.Session, ev Event) (outcome, error)

// Machine consumes events against the sender's session and produces prompts.
type Machine struct {
	sessions session.Registry
	catalog  Catalog
	sink     ledger.Sink
	auth     auth.Authorizer
	tr       i18n.Translator
	log      *slog.Logger
	pageSize int
	now      func() time.Time

	steps map[session.Step]stepHandler
}

// NewMachine builds a Machine with every step handler registered.
func NewMachine(deps Deps) *Machine {
	m := &Machine{
		sessions: deps.Sessions,
		catalog:  deps.Catalog,
		sink:     deps.Sink,
		auth:     deps.Auth,
		tr:       deps.Translator,
		log:      deps.Logger,
		pageSize: catalog.ClampPageSize(deps.PageSize),
		now:      deps.Now,
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.tr == nil {
		m.tr = i18n.MustLoad(i18n.DefaultLang).Translator("")
	}
	if m.sessions == nil {
		m.sessions = session.NewRegistry(nil, m.log)
	}
	if m.auth == nil {
		m.auth = auth.NewAllowList(nil)
	}
	if m.catalog == nil {
		m.catalog = catalog.NewCache(catalog.SourceFunc(func(context.Context) ([]catalog.Entry, error) {
			return nil, nil
		}), m.log)
	}

	m.steps = map[session.Step]stepHandler{
		session.StepChooseMode:       m.handleChooseMode,
		session.StepAwaitName:        m.handleName,
		session.StepAwaitPhone:       m.handlePhone,
		session.StepAwaitAddress:     m.handleAddress,
		session.StepAwaitCategory:    m.handleCategory,
		session.StepAwaitItemName:    m.handleItemName,
		session.StepBrowseCatalog:    m.handleBrowse,
		session.StepAwaitVariant:     m.handleVariant,
		session.StepAwaitQuantity:    m.handleQuantity,
		session.StepAwaitPrice:       m.handlePrice,
		session.StepAwaitLink:        m.handleLink,
		session.StepConfirm:          m.handleConfirm,
		session.StepFastAwaitBlock:   m.handleFastBlock,
		session.StepFastDisambiguate: m.handleFastDisambiguate,
		session.StepSearch:           m.handleSearch,
	}
	return m
}

// Handle processes one event. Validation problems come back as errors
// carrying an operator-facing message; the session is left unchanged then.
func (m *Machine) Handle(ctx context.Context, ev Event) ([]Prompt, error) {
	if !m.auth.Allowed(ev.UserID) {
		m.log.Warn("unauthorized access", slog.Int64("user_id", ev.UserID), slog.String("kind", ev.Kind.String()))
		// A user dropped from the allow-list loses any session left behind.
		_ = m.sessions.Clear(ctx, ev.UserID)
		return nil, apperrors.NewAuthorizationError(ev.UserID)
	}

	unlock := m.sessions.Lock(ev.UserID)
	defer unlock()

	if ev.Kind == EventCommand {
		return m.handleCommand(ctx, ev)
	}

	if ev.Kind == EventButton {
		action, data := SplitToken(ev.Token)
		switch action {
		case ActionCancel:
			return m.cancel(ctx, ev.UserID, "common.cancelled")
		case ActionMode:
			mode, ok := order.ParseMode(data)
			if !ok {
				return nil, apperrors.NewStateError("unknown mode " + data)
			}
			return m.startGuided(ctx, ev.UserID, mode)
		case ActionMenu:
			if data == menuSearch {
				return m.startSearch(ctx, ev.UserID)
			}
		}
	}

	s, err := m.sessions.Get(ctx, ev.UserID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, apperrors.NewSessionNotFoundError(ev.UserID)
		}
		return nil, apperrors.NewInternalError(err)
	}

	return m.dispatch(ctx, s, ev)
}

func (m *Machine) dispatch(ctx context.Context, s *session.Session, ev Event) ([]Prompt, error) {
	handler, ok := m.steps[s.Step]
	if !ok {
		m.log.Error("no handler registered for step", slog.String("step", string(s.Step)), slog.Int64("user_id", s.UserID))
		return nil, apperrors.NewStateError("no handler for step " + string(s.Step))
	}

	out, err := handler(ctx, s, ev)
	if err != nil {
		return nil, err
	}
	if out.done {
		return m.address(s.UserID, out.prompts), nil
	}

	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	prompts := out.prompts
	if !out.quiet {
		prompts = append(prompts, m.promptFor(s))
	}
	return m.address(s.UserID, prompts), nil
}

func (m *Machine) save(ctx context.Context, s *session.Session) error {
	if err := m.sessions.Save(ctx, s); err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			return apperrors.NewStateError(err.Error())
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (m *Machine) create(ctx context.Context, userID int64, flow session.Flow, mode order.Mode, step session.Step) (*session.Session, error) {
	s, err := m.sessions.Create(ctx, userID, flow, mode, step)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return s, nil
}

func (m *Machine) handleCommand(ctx context.Context, ev Event) ([]Prompt, error) {
	switch ev.Command {
	case CommandStart:
		s, err := m.create(ctx, ev.UserID, session.FlowGuided, "", session.StepChooseMode)
		if err != nil {
			return nil, err
		}
		return m.address(ev.UserID, []Prompt{m.promptFor(s)}), nil
	case CommandFastSale:
		return m.startFast(ctx, ev.UserID, order.ModeSale)
	case CommandFastPurchase:
		return m.startFast(ctx, ev.UserID, order.ModePurchase)
	case CommandSearch:
		return m.startSearch(ctx, ev.UserID)
	case CommandReload:
		return m.reload(ctx, ev.UserID), nil
	case CommandCancel:
		return m.cancel(ctx, ev.UserID, "common.input_cancelled")
	case CommandHelp:
		return m.address(ev.UserID, []Prompt{{Text: m.tr.T("help.text")}}), nil
	default:
		return nil, apperrors.NewStateError("unknown command " + string(ev.Command))
	}
}

func (m *Machine) startGuided(ctx context.Context, userID int64, mode order.Mode) ([]Prompt, error) {
	if s, err := m.sessions.Get(ctx, userID); err == nil && s.Step == session.StepChooseMode && s.Mode == "" {
		s.SetMode(mode)
		s.Order.Stamp(m.now())
		s.Step = session.StepAwaitName
		if err := m.save(ctx, s); err != nil {
			return nil, err
		}
		return m.address(userID, []Prompt{m.promptFor(s)}), nil
	}

	s, err := m.create(ctx, userID, session.FlowGuided, mode, session.StepAwaitName)
	if err != nil {
		return nil, err
	}
	s.Order.Stamp(m.now())
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	return m.address(userID, []Prompt{m.promptFor(s)}), nil
}

func (m *Machine) startSearch(ctx context.Context, userID int64) ([]Prompt, error) {
	if s, err := m.sessions.Get(ctx, userID); err == nil && s.Step == session.StepChooseMode {
		s.Flow = session.FlowSearch
		s.Step = session.StepSearch
		if err := m.save(ctx, s); err != nil {
			return nil, err
		}
		return m.address(userID, []Prompt{m.searchIntro()}), nil
	}

	if _, err := m.create(ctx, userID, session.FlowSearch, "", session.StepSearch); err != nil {
		return nil, err
	}
	return m.address(userID, []Prompt{m.searchIntro()}), nil
}

func (m *Machine) startFast(ctx context.Context, userID int64, mode order.Mode) ([]Prompt, error) {
	s, err := m.create(ctx, userID, session.FlowFast, mode, session.StepFastAwaitBlock)
	if err != nil {
		return nil, err
	}
	return m.address(userID, []Prompt{m.promptFor(s)}), nil
}

func (m *Machine) cancel(ctx context.Context, userID int64, key string) ([]Prompt, error) {
	if err := m.sessions.Clear(ctx, userID); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	m.log.Info("session cancelled", slog.Int64("user_id", userID))
	return m.address(userID, []Prompt{{Text: m.tr.T(key)}}), nil
}

func (m *Machine) reload(ctx context.Context, userID int64) []Prompt {
	count, err := m.catalog.Refresh(ctx)
	if err != nil {
		m.log.Warn("catalog reload failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return m.address(userID, []Prompt{{Text: i18n.Format(m.tr, "reload.failed", count)}})
	}
	return m.address(userID, []Prompt{{Text: i18n.Format(m.tr, "reload.done", count)}})
}

func (m *Machine) address(userID int64, prompts []Prompt) []Prompt {
	for i := range prompts {
		prompts[i].UserID = userID
	}
	return prompts
}

// handleChooseMode keeps the main menu up until a menu button is pressed.
func (m *Machine) handleChooseMode(_ context.Context, _ *session.Session, _ Event) (outcome, error) {
	return outcome{}, nil
}
