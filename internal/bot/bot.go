// Package bot connects the conversation machine to Telegram.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/parfum-bot/internal/bot/handlers"
	"github.com/Proton-105/parfum-bot/internal/conversation"
	errors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/idempotency"
	"github.com/Proton-105/parfum-bot/internal/middleware"
)

// Settings configures the Telegram connection.
type Settings struct {
	Token       string
	PollTimeout time.Duration
	Verbose     bool
	// Offline skips the getMe call; used by tests.
	Offline bool
}

// Deps are the collaborators the bot routes updates to.
type Deps struct {
	Conversation handlers.Conversation
	ErrHandler   *errors.Handler
	Translator   i18n.Translator
	// Idempotency is optional; nil processes redeliveries again.
	Idempotency idempotency.Guard
	RateLimit   *middleware.RateLimitMiddleware
	Logger      *slog.Logger
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	router     *Router
	translator i18n.Translator
}

// New builds a long-polling telegram bot routed into the conversation machine.
func New(settings Settings, deps Deps) (*Bot, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.Conversation == nil {
		return nil, fmt.Errorf("initialize bot: conversation is required")
	}
	if deps.Translator == nil {
		deps.Translator = i18n.MustLoad(i18n.DefaultLang).Translator("")
	}

	tb, err := telebot.NewBot(telebot.Settings{
		Token:   settings.Token,
		Poller:  &telebot.LongPoller{Timeout: settings.PollTimeout},
		Verbose: settings.Verbose,
		Offline: settings.Offline,
		OnError: func(err error, c telebot.Context) {
			log.Error("telegram update failed", slog.Any("error", err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:    tb,
		log:        log,
		router:     NewRouter(log),
		translator: deps.Translator,
	}

	b.setupRouter(deps)

	if deps.RateLimit != nil {
		b.telebot.Use(deps.RateLimit.Handle)
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)

	return b, nil
}

// Start publishes the command menu and runs the polling loop until Stop.
func (b *Bot) Start() {
	if err := b.telebot.SetCommands(MenuCommands(b.translator)); err != nil {
		b.log.Warn("failed to publish command menu", slog.Any("error", err))
	}
	b.log.Info("telegram bot polling started")
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Router exposes the update router.
func (b *Bot) Router() *Router {
	return b.router
}

func (b *Bot) setupRouter(deps Deps) {
	fallback := b.translator.T("common.error")

	b.router.Use(CorrelationMiddleware())
	b.router.Use(RecoveryMiddleware(b.log, deps.ErrHandler, fallback))
	b.router.Use(middleware.Idempotency(deps.Idempotency, b.log))
	b.router.Use(ErrorHandlingMiddleware(deps.ErrHandler, fallback))
	b.router.Use(LoggingMiddleware(b.log))
	b.router.Use(middleware.Metrics)

	for cmd, name := range commandTable {
		b.router.RegisterCommand(cmd, handlers.NewCommandHandler(deps.Conversation, name, b.log))
	}
	b.router.SetDefault(handlers.NewCommandHandler(deps.Conversation, conversation.CommandHelp, b.log))
	b.router.HandleText(handlers.NewTextHandler(deps.Conversation, b.log))
	b.router.HandleCallbacks(handlers.NewCallbackHandler(deps.Conversation, b.log))
}
