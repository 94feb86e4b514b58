package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"elan/internal/audit"
	"elan/internal/guard"
	"elan/internal/identity/provider"
	"elan/internal/identity/provider/firebase"
	"elan/internal/identity/provider/google"
	"elan/internal/identity/provider/mock"
	"elan/internal/platform/config"
	"elan/internal/platform/httpserver"
	"elan/internal/platform/logger"
	"elan/internal/platform/metrics"
	platformredis "elan/internal/platform/redis"
	"elan/internal/revocation"
	"elan/internal/session/service"
	"elan/internal/session/store"
	"elan/internal/sessiontoken"
	httptransport "elan/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
	}

	revocations, err := buildRevocations(ctx, redisClient, db)
	if err != nil {
		return err
	}

	auditStore, auditCleanup, err := buildAuditStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer auditCleanup()
	publisher := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer publisher.Close()

	identityProvider, tokens, validator := buildProvider(cfg, log)

	managerOpts := []service.Option{
		service.WithLogger(log),
		service.WithAudit(publisher),
		service.WithRevocations(revocations),
	}
	if validator != nil {
		managerOpts = append(managerOpts, service.WithValidator(validator))
	}
	manager := service.New(identityProvider, store.NewInMemoryStore(), tokens, managerOpts...)
	if err := manager.Initialize(ctx); err != nil {
		return err
	}
	defer manager.Close()

	protected := guard.DefaultProtectedPaths()
	if len(cfg.ProtectedPaths) > 0 {
		protected = guard.PathSet(cfg.ProtectedPaths)
	}
	guardOpts := []guard.Option{
		guard.WithLogger(log),
		guard.WithDecisionHook(func(allowed bool) {
			outcome := "redirected"
			if allowed {
				outcome = "allowed"
			}
			m.ObserveGuard(outcome)
		}),
	}
	if validator != nil {
		guardOpts = append(guardOpts,
			guard.WithValidator(validator),
			guard.WithRevocations(revocations),
		)
	}
	g := guard.New(protected, httptransport.SignInPath, guardOpts...)

	handlerOpts := []httptransport.HandlerOption{
		httptransport.WithMetrics(m),
		httptransport.WithSecureCookies(cfg.Environment == config.EnvProduction),
	}
	if cfg.FirebaseConfigured() && cfg.GoogleConfigured() {
		handlerOpts = append(handlerOpts, httptransport.WithGoogle(
			google.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
		))
	}
	handler := httptransport.NewHandler(manager, log, handlerOpts...)
	router := httptransport.NewRouter(handler, g)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting elan",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"provider_mode", manager.Mode(),
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// buildProvider selects the identity backend. A real API key wins; without
// one, development falls back to the mock provider and production refuses
// every identity operation rather than silently accepting demo credentials.
func buildProvider(cfg config.Config, log *slog.Logger) (provider.Provider, service.TokenMinter, service.TokenValidator) {
	if cfg.FirebaseConfigured() {
		var social firebase.SocialExchanger
		if cfg.GoogleConfigured() {
			social = google.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
		}
		p := firebase.New(firebase.Config{
			APIKey:   cfg.Firebase.APIKey,
			Endpoint: cfg.Firebase.Endpoint,
			Social:   social,
			Logger:   log,
		})
		tokens := sessiontoken.NewService(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.TTL)
		return p, tokens, tokens
	}

	if cfg.Environment == config.EnvDevelopment {
		log.Warn("no identity backend configured, using mock provider")
		return mock.New(mock.WithLogger(log)), sessiontoken.Static{TTL: cfg.Session.TTL}, nil
	}

	log.Error("no identity backend configured in production, refusing sign-ins")
	tokens := sessiontoken.NewService(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.TTL)
	return provider.NewUnavailable(), tokens, tokens
}

// buildRevocations picks the strongest available backing: Redis, then
// Postgres, then process memory.
func buildRevocations(ctx context.Context, redisClient *platformredis.Client, db *sql.DB) (revocation.List, error) {
	if redisClient != nil {
		return revocation.NewRedisList(redisClient.Client), nil
	}
	if db != nil {
		list := revocation.NewPostgresList(db)
		if err := list.Schema(ctx); err != nil {
			return nil, err
		}
		return list, nil
	}
	return revocation.NewMemoryList(), nil
}

func buildAuditStore(ctx context.Context, cfg config.Config) (audit.Store, func(), error) {
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, nil, err
		}
		return kafkaStore, kafkaStore.Close, nil
	}
	return audit.NewInMemoryStore(), func() {}, nil
}
