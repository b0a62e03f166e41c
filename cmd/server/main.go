package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/same-say/same-say/internal/api/http"
	"github.com/same-say/same-say/internal/application/auth"
	"github.com/same-say/same-say/internal/application/crud"
	"github.com/same-say/same-say/internal/application/game"
	"github.com/same-say/same-say/internal/application/interaction"
	"github.com/same-say/same-say/internal/application/protect"
	"github.com/same-say/same-say/internal/config"
	"github.com/same-say/same-say/internal/domain/kv"
	"github.com/same-say/same-say/internal/infrastructure/badgerkv"
	"github.com/same-say/same-say/internal/infrastructure/discord"
	"github.com/same-say/same-say/internal/infrastructure/dynamo"
	"github.com/same-say/same-say/internal/infrastructure/keystore"
	"github.com/same-say/same-say/internal/infrastructure/postgres"
	"github.com/same-say/same-say/internal/infrastructure/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.KVBackend).Msg("store error")
	}
	defer store.close()
	go tasks.RunPeriodic(ctx, "store-maintenance", cfg.StoreSweepInterval, logger, store.maintain)

	keys, err := keystore.Parse(cfg.DiscordPublicKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid DISCORD_PUBLIC_KEY")
	}
	if !keys.Configured() {
		logger.Warn().Msg("DISCORD_PUBLIC_KEY is not set, every interaction will be rejected")
	}

	discordClient := discord.NewClient(discord.Config{
		APIBase:    cfg.DiscordAPIBase,
		WebhookURL: cfg.DiscordWebhookURL,
		BotToken:   cfg.DiscordToken,
		Timeout:    cfg.NotifyTimeout,
	}, logger)
	tracker := tasks.NewTracker(cfg.NotifyTimeout, logger)

	// services
	protectSvc := protect.NewService(store, protect.Options{
		SlotTTL:        cfg.MatchTTL,
		AllowOverwrite: cfg.ProtectAllowOverwrite,
	}, logger)
	gameSvc := game.NewService(store, discordClient, tracker, cfg.GameTTL, logger)
	authSvc := auth.NewService(store, auth.Credentials{
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
	}, cfg.SessionTTL, logger)
	crudSvc := crud.NewService(store, logger)
	router := interaction.NewRouter(protectSvc, gameSvc, discordClient, interaction.DefaultCommands(cfg.CommandPrefix), logger)

	// API server
	apiServer := httpapi.NewServer(httpapi.Deps{
		Verifier:    keys,
		Router:      router,
		GameSvc:     gameSvc,
		AuthSvc:     authSvc,
		CrudSvc:     crudSvc,
		CORSOrigins: cfg.CORSAllowedOrigins,
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("backend", cfg.KVBackend).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	logger.Info().Msg("shutting down")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
	if err := tracker.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("background tasks did not finish")
	}
}

// openedStore is the selected backend plus its lifecycle hooks.
type openedStore struct {
	kv.Store
	close    func()
	maintain func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*openedStore, error) {
	switch cfg.KVBackend {
	case config.BackendBadger:
		var (
			db  *badgerkv.Store
			err error
		)
		if cfg.BadgerInMemory {
			db, err = badgerkv.OpenInMemory(logger)
		} else {
			db, err = badgerkv.Open(cfg.BadgerDir, logger)
		}
		if err != nil {
			return nil, err
		}
		return &openedStore{
			Store:    db,
			close:    func() { _ = db.Close() },
			maintain: func(context.Context) error { return db.RunGC() },
		}, nil

	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return &openedStore{
			Store:    dynamo.NewStore(client, cfg.DynamoDBTable, logger),
			close:    func() {},
			maintain: func(context.Context) error { return nil },
		}, nil

	case config.BackendPostgres:
		policy := postgres.RetryPolicy{Attempts: cfg.StoreConnectAttempts, Backoff: cfg.StoreRetryBackoff}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, policy, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, err
		}
		store := postgres.NewKVStore(pool, policy, logger)
		return &openedStore{
			Store: store,
			close: pool.Close,
			maintain: func(ctx context.Context) error {
				n, err := store.DeleteExpired(ctx)
				if n > 0 {
					logger.Debug().Int("rows", n).Msg("expired entries removed")
				}
				return err
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.KVBackend)
	}
}
