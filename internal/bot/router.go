package bot

import (
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/bot/handlers"
)

// updateKind is the routing class of an update.
type updateKind string

const (
	kindCallback updateKind = "callback"
	kindCommand  updateKind = "command"
	kindText     updateKind = "text"
)

func classify(c telebot.Context) (updateKind, string) {
	if c.Callback() != nil {
		return kindCallback, ""
	}
	if cmd := NormalizeCommand(c.Text()); cmd != "" {
		return kindCommand, cmd
	}
	return kindText, ""
}

// Router sends each update to one handler wrapped in the shared middleware
// chain. The first middleware passed to Use runs outermost.
type Router struct {
	log *slog.Logger

	mu          sync.RWMutex
	commands    map[string]handlers.Handler
	byKind      map[updateKind]handlers.Handler
	unknown     handlers.Handler
	middlewares []handlers.Middleware
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		log:      log,
		commands: make(map[string]handlers.Handler),
		byKind:   make(map[updateKind]handlers.Handler),
	}
}

func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	r.commands[cmd] = h
	r.mu.Unlock()
}

// HandleCallbacks sets the handler for inline button presses.
func (r *Router) HandleCallbacks(h handlers.Handler) { r.set(kindCallback, h) }

// HandleText sets the handler for plain text.
func (r *Router) HandleText(h handlers.Handler) { r.set(kindText, h) }

// SetDefault sets the handler for commands nobody registered.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	r.unknown = h
	r.mu.Unlock()
}

func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	r.middlewares = append(r.middlewares, mw)
	r.mu.Unlock()
}

func (r *Router) set(kind updateKind, h handlers.Handler) {
	r.mu.Lock()
	r.byKind[kind] = h
	r.mu.Unlock()
}

// Route handles one update. Updates without a handler are dropped.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	r.mu.RLock()
	h := r.lookupLocked(c)
	chain := r.middlewares
	r.mu.RUnlock()

	if h == nil {
		r.log.Debug("update without handler ignored")
		return nil
	}

	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h(c)
}

func (r *Router) lookupLocked(c telebot.Context) handlers.Handler {
	kind, cmd := classify(c)
	if kind != kindCommand {
		return r.byKind[kind]
	}
	if h, ok := r.commands[cmd]; ok {
		return h
	}
	return r.unknown
}
