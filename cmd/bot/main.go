package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/octobees/venue-finder/internal/auth"
	"github.com/octobees/venue-finder/internal/config"
	"github.com/octobees/venue-finder/internal/database"
	"github.com/octobees/venue-finder/internal/handler"
	"github.com/octobees/venue-finder/internal/i18n"
	middlewarepkg "github.com/octobees/venue-finder/internal/middleware"
	"github.com/octobees/venue-finder/internal/places"
	"github.com/octobees/venue-finder/internal/repository"
	"github.com/octobees/venue-finder/internal/router"
	"github.com/octobees/venue-finder/internal/service"
	"github.com/octobees/venue-finder/internal/service/search"
	"github.com/octobees/venue-finder/internal/service/usage"
	"github.com/octobees/venue-finder/internal/session"
	"github.com/octobees/venue-finder/internal/telegram"
	"github.com/octobees/venue-finder/internal/telemetry"
)

const serviceName = "venue-finder"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tr, err := i18n.New(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	if strings.TrimSpace(cfg.GoogleMapsAPIKey) == "" {
		logger.Warn("GOOGLE_MAPS_API_KEY is not set; searches will return no results")
	}
	placesClient := places.NewClient(cfg.GoogleMapsAPIKey,
		places.WithBaseURL(cfg.PlacesBaseURL),
		places.WithHTTPClient(&http.Client{Timeout: cfg.ProviderTimeout}),
		places.WithPageDelay(cfg.ProviderPageDelay),
		places.WithMaxRadius(cfg.ProviderMaxRadius),
		places.WithLogger(logger.With("component", "places")),
	)
	aggregator := search.NewAggregator(placesClient, cfg.Categories, logger.With("component", "search"))
	tracker := usage.NewTracker(store, logger.With("component", "usage"))

	bot := telegram.NewClient(nil, cfg.TelegramAPIURL, cfg.BotToken, logger.With("component", "telegram"))
	machine := session.NewMachine(aggregator, bot, tr, store, tracker, session.Options{
		AdminChatID: cfg.AdminChatID,
		ResultLimit: session.DefaultResultLimit,
	}, logger.With("component", "session"))
	dispatcher := session.NewDispatcher(machine, session.NewMemoryStore(), store, tr, logger.With("component", "dispatcher"))
	updates := telegram.NewUpdateHandler(dispatcher, bot, logger.With("component", "updates"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger.With("component", "http")))
	e.Use(echoMiddleware.Recover())

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	handlers := router.Handlers{}
	if cfg.OperatorEnabled() {
		authService := service.NewAuthService(cfg.OperatorEmail, cfg.OperatorPasswordHash, jwtManager)
		handlers.Auth = handler.NewAuthHandler(authService, jwtManager.TTL())
		handlers.Search = handler.NewSearchHandler(aggregator, tr, logger.With("component", "operator"))
	}
	if cfg.BotMode == config.ModeWebhook {
		handlers.Webhook = handler.NewWebhookHandler(updates, cfg.WebhookSecret, logger.With("component", "webhook"))
	}
	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	pollErr := make(chan error, 1)
	switch cfg.BotMode {
	case config.ModeWebhook:
		if cfg.WebhookURL != "" {
			url := strings.TrimRight(cfg.WebhookURL, "/") + router.WebhookPath
			if err := bot.SetWebhook(ctx, url, cfg.WebhookSecret); err != nil {
				return fmt.Errorf("register webhook: %w", err)
			}
			logger.Info("webhook registered", "url", url)
		}
	default:
		poller := telegram.NewPoller(bot, updates, logger.With("component", "poller"))
		go func() {
			pollErr <- poller.Run(ctx)
		}()
	}
	logger.Info("bot started", "mode", cfg.BotMode, "store", cfg.StoreDriver, "port", cfg.Port, "categories", cfg.Categories)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case err := <-pollErr:
		if err != nil {
			runErr = fmt.Errorf("polling: %w", err)
		}
	}
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	updates.Wait()

	return runErr
}

// openStore selects the preferences and counters backend.
func openStore(ctx context.Context, cfg *config.Config) (repository.KVStore, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := database.Connect(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		store := repository.NewPGXKVStore(pool)
		if err := store.EnsureSchema(connectCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("prepare database: %w", err)
		}
		return store, pool.Close, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(connectCtx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		store := repository.NewSQLiteKVStore(db)
		if err := store.EnsureSchema(connectCtx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("prepare sqlite: %w", err)
		}
		return store, func() { _ = db.Close() }, nil
	default:
		return repository.NewMemoryKVStore(), func() {}, nil
	}
}
