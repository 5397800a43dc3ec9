package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"signal-router/internal/broker"
	"signal-router/internal/dedup"
	"signal-router/internal/notify"
	"signal-router/internal/security"
	"signal-router/internal/server"
	"signal-router/internal/store"
	"signal-router/internal/trading"
)

func newServeCmd(app *App) *cobra.Command {
	var paper bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook listener",
		Long: `Start the HTTP listener that accepts signed trading signals on POST /trade.

Broker login is deferred to the first trade request; startup never blocks
on authentication.`,
		Example: `  signal-router serve
  signal-router serve --paper     # simulated broker, no real orders
  signal-router serve --dry-run   # decisions computed, nothing dispatched`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(app, paper, dryRun)
		},
	}

	cmd.Flags().BoolVar(&paper, "paper", false, "use the in-memory paper broker")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute decisions without dispatching orders")
	return cmd
}

func runServe(app *App, paper, dryRun bool) error {
	cfg := app.Config
	logger := app.Logger

	var b broker.Broker
	if paper || cfg.Broker.Kite.APIKey == "" {
		b = broker.NewPaperBroker(broker.PaperBrokerConfig{})
		logger.Info().Msg("Paper broker initialized")
	} else {
		b = broker.NewKiteBroker(broker.KiteConfig{
			APIKey:    cfg.Broker.Kite.APIKey,
			APISecret: cfg.Broker.Kite.APISecret,
		})
		logger.Info().Msg("Kite broker initialized")
	}

	var dedupCache dedup.Cache
	if cfg.Dedup.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		redisCache, err := dedup.NewRedisCache(ctx, cfg.Dedup.RedisAddr, cfg.Dedup.TTL)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		dedupCache = redisCache
		logger.Info().Str("addr", cfg.Dedup.RedisAddr).Msg("Redis dedup cache initialized")
	} else {
		dedupCache = dedup.NewMemoryCache(cfg.Dedup.TTL)
	}

	gate := trading.NewGate(b, trading.Credentials{
		Username:   cfg.Broker.Username,
		Password:   cfg.Broker.Password,
		TradingPIN: cfg.Broker.TradingPIN,
		TOTPSecret: cfg.Broker.TOTPSecret,
	}, logger)

	selector := trading.NewSelector(b, trading.SelectorConfig{
		TargetDelta: cfg.Trading.TargetDelta,
		MaxDTE:      cfg.Trading.MaxDTE,
	}, logger)

	router := trading.NewRouter(
		security.NewSignatureVerifier(cfg.Webhook.Secret),
		dedupCache,
		gate,
		selector,
		b,
		trading.RouterConfig{
			Notional:        cfg.Trading.Notional,
			DryRun:          dryRun || cfg.Trading.DryRun,
			PremiumFloor:    cfg.Trading.PremiumFloor,
			ExcludedSymbols: cfg.Trading.ExcludedSymbols,
		},
		logger,
	)

	var journal *store.Journal
	if cfg.Journal.Path != "" {
		var err error
		journal, err = store.NewJournal(cfg.Journal.Path)
		if err != nil {
			logger.Warn().Err(err).Msg("Journal unavailable, decisions will not be persisted")
		} else {
			defer journal.Close()
		}
	}

	var notifiers []notify.Notifier
	notifiers = append(notifiers, notify.NewTerminalNotifier())
	if cfg.Notify.Telegram.BotToken != "" && cfg.Notify.Telegram.ChatID != "" {
		tg, err := notify.NewTelegramNotifier(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		if err != nil {
			logger.Warn().Err(err).Msg("Telegram notifier unavailable")
		} else {
			notifiers = append(notifiers, tg)
		}
	}
	dispatcher := notify.NewDispatcher(logger, notifiers...)

	srv := server.New(router, journal, dispatcher, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Bool("dry_run", dryRun || cfg.Trading.DryRun).Msg("Listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
