package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Proton-105/parfum-bot/internal/auth"
	"github.com/Proton-105/parfum-bot/internal/bot"
	"github.com/Proton-105/parfum-bot/internal/catalog"
	"github.com/Proton-105/parfum-bot/internal/conversation"
	apperrors "github.com/Proton-105/parfum-bot/internal/errors"
	"github.com/Proton-105/parfum-bot/internal/health"
	"github.com/Proton-105/parfum-bot/internal/i18n"
	"github.com/Proton-105/parfum-bot/internal/idempotency"
	"github.com/Proton-105/parfum-bot/internal/ledger"
	"github.com/Proton-105/parfum-bot/internal/lifecycle"
	"github.com/Proton-105/parfum-bot/internal/middleware"
	"github.com/Proton-105/parfum-bot/internal/ops"
	"github.com/Proton-105/parfum-bot/internal/ratelimit"
	"github.com/Proton-105/parfum-bot/internal/session"
	"github.com/Proton-105/parfum-bot/pkg/config"
	"github.com/Proton-105/parfum-bot/pkg/graceful"
	"github.com/Proton-105/parfum-bot/pkg/logger"
	"github.com/Proton-105/parfum-bot/pkg/metrics"
	redisclient "github.com/Proton-105/parfum-bot/pkg/redis"
)

const (
	idempotencyTTL      = 24 * time.Hour
	cleanerInterval     = 10 * time.Minute
	rateLimitMaxAge     = time.Hour
	sessionSampleEvery  = 15 * time.Second
	healthCheckTimeout  = 5 * time.Second
	sentryFlushTimeout  = 2 * time.Second
	redisConnectTimeout = 5 * time.Second
)

// NewServeCommand creates the serve command that runs the bot.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the ops HTTP server",
		Long: `Run the Telegram long-polling bot together with the ops HTTP server
(/healthz, /readyz, /metrics) until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts)
		},
	}
}

func loadConfig(opts *RootOptions) (*config.Config, *viper.Viper, error) {
	if opts.ConfigFile == "" {
		return config.Load()
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	return config.LoadFile(opts.ConfigFile, env)
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, v, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.Verbose {
		cfg.Logger.Level = "debug"
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(sentryFlushTimeout)
	}

	log, logCloser := logger.New(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		File:   cfg.Logger.File,
		Sentry: cfg.Sentry.Enabled,
	})
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("starting parfum bot",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.Server.Port),
		slog.String("log_level", cfg.Logger.Level),
		slog.Bool("redis", cfg.Redis.Enabled),
	)

	messages, err := i18n.Load(cfg.I18n.Lang)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	translator := messages.Translator("")

	allowList := auth.NewAllowList(cfg.Auth.AllowedIDs)
	config.Watch(v, func(next *config.Config) {
		allowList.Replace(next.Auth.AllowedIDs)
		log.Info("allow-list reloaded", slog.Int("ids", allowList.Len()))
	}, func(err error) {
		log.Warn("ignoring invalid config change", slog.Any("error", err))
	})

	sheetURL := cfg.Catalog.SheetURL
	if sheetURL == "" {
		sheetURL = catalog.DefaultSheetURL
	}
	catalogCache := catalog.NewCache(catalog.NewSheetSource(sheetURL, nil, cfg.Catalog.Timeout, log), log)
	if count, err := catalogCache.Refresh(ctx); err != nil {
		log.Warn("initial catalog load failed", slog.Int("entries", count), slog.Any("error", err))
	}

	sink := ledger.NewHTTPSink(cfg.Ledger.URL, nil, cfg.Ledger.Timeout, log)
	sessions := session.NewRegistry(nil, log)

	machine := conversation.NewMachine(conversation.Deps{
		Sessions:   sessions,
		Catalog:    catalogCache,
		Sink:       sink,
		Auth:       allowList,
		Translator: translator,
		Logger:     log,
		PageSize:   cfg.Catalog.PageSize,
	})

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	shutdown := lifecycle.NewShutdown(log)

	var (
		redisClient *redisclient.Client
		redisCmd    goredis.Cmdable
	)
	if cfg.Redis.Enabled {
		connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		redisClient, err = redisclient.New(connectCtx, redisclient.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  redisConnectTimeout,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		cancel()
		if err != nil {
			log.Warn("redis unavailable, continuing with in-memory rate limiting", slog.Any("error", err))
			redisClient = nil
		} else {
			redisCmd = redisClient
		}
	}

	memoryLimiter := ratelimit.NewMemoryLimiter(log)
	var limiter ratelimit.Limiter = memoryLimiter
	var idem idempotency.Guard
	if redisCmd != nil {
		limiter = ratelimit.NewFailoverLimiter(ratelimit.NewRedisLimiter(redisCmd, log), memoryLimiter, log)
		idem = idempotency.NewManager(idempotency.NewRedisStore(redisCmd, log), idempotencyTTL, log)
	}

	var rateLimit *middleware.RateLimitMiddleware
	if cfg.RateLimit.Enabled {
		policy, err := ratelimit.NewPolicy(cfg.RateLimit)
		if err != nil {
			return fmt.Errorf("rate limit policy: %w", err)
		}
		rateLimit = middleware.NewRateLimitMiddleware(limiter, policy, translator.T("common.rate_limited"), log)
	}

	tgBot, err := bot.New(bot.Settings{
		Token:       cfg.Bot.Token,
		PollTimeout: cfg.Bot.Poll,
		Verbose:     cfg.Bot.Verbose,
	}, bot.Deps{
		Conversation: machine,
		ErrHandler:   errHandler,
		Translator:   translator,
		Idempotency:  idem,
		RateLimit:    rateLimit,
		Logger:       log,
	})
	if err != nil {
		return err
	}

	checker := health.NewChecker(log, healthCheckTimeout)
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))
	checker.AddCheck("catalog", health.NewCatalogChecker(catalogCache))
	checker.AddCheck("ledger", sink)
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	}
	probes := lifecycle.NewProbes(log, checker, "telegram")

	opsServer := graceful.NewServer(log, &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           ops.NewRouter(ops.Deps{Health: checker, Probes: probes, Logger: log}),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.Server.ShutdownTimeout)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	var wg sync.WaitGroup
	goRun := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(runCtx)
		}()
	}

	goRun(metrics.NewSessionCollector(sessions, sessionSampleEvery).Run)
	goRun(ratelimit.NewCleaner(redisCmd, memoryLimiter, log, cleanerInterval, rateLimitMaxAge).Run)
	if redisCmd != nil {
		goRun(idempotency.NewCleaner(redisCmd, log, cleanerInterval, idempotencyTTL).Run)
	}

	serverErr := make(chan error, 1)
	goRun(func(ctx context.Context) {
		if err := opsServer.ListenAndServe(ctx); err != nil {
			serverErr <- err
		}
	})

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		tgBot.Start()
	}()

	shutdown.Register("readiness", func(context.Context) error {
		probes.MarkStopping()
		return nil
	})
	shutdown.NextPhase()
	shutdown.Register("telegram", func(ctx context.Context) error {
		tgBot.Stop()
		select {
		case <-botDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdown.NextPhase()
	shutdown.Register("workers", func(ctx context.Context) error {
		cancelRun()
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdown.NextPhase()
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-serverErr:
		log.Error("ops server stopped", slog.Any("error", runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}

	log.Info("parfum bot stopped")
	return runErr
}
