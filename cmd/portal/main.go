package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/sportsvenue-portal/internal/apiclient"
	"github.com/iliyamo/sportsvenue-portal/internal/config"
	"github.com/iliyamo/sportsvenue-portal/internal/database"
	"github.com/iliyamo/sportsvenue-portal/internal/logging"
	"github.com/iliyamo/sportsvenue-portal/internal/payment"
	"github.com/iliyamo/sportsvenue-portal/internal/portal"
	"github.com/iliyamo/sportsvenue-portal/internal/queue"
	"github.com/iliyamo/sportsvenue-portal/internal/repository"
	"github.com/iliyamo/sportsvenue-portal/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.App.Env, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		log.Warn().Msg("redis unavailable: sessions kept in memory, rate limiting off")
	} else {
		defer rdb.Close()
	}

	ledger, closeLedger := openLedger(ctx, cfg.MySQL, log)
	defer closeLedger()

	opts := []portal.Option{
		portal.WithLogger(log),
		portal.WithIdle(cfg.Session.Idle),
		portal.WithRedis(rdb, cfg.Session.Secret, cfg.Session.Prefix, cfg.Session.TTL),
	}
	if cfg.Notify.Enabled {
		opts = append(opts, portal.WithNotifier(queue.NewPublisher(cfg.Notify.RabbitURL, log)))
		if cfg.Notify.ConsumerEnabled {
			consumer := queue.NewConsumer(cfg.Notify.RabbitURL, cfg.Notify.LogDir, log)
			go func() { _ = consumer.Run(ctx) }()
		}
	}

	base := apiclient.New(cfg.API.BaseURL, &http.Client{Timeout: cfg.API.Timeout})
	reg := portal.NewRegistry(base, ledger, opts...)
	go reg.Run(ctx)

	e := router.New(router.Deps{
		Registry:     reg,
		Redis:        rdb,
		RateLimit:    cfg.RateLimit,
		SessionTTL:   cfg.Session.TTL,
		CookieSecure: cfg.Session.CookieSecure,
		Log:          log,
	})

	addr := ":" + cfg.App.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.App.Env).Str("api", cfg.API.BaseURL).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// openLedger uses MySQL when configured and falls back to memory
// otherwise.
func openLedger(ctx context.Context, c config.MySQL, log zerolog.Logger) (payment.Ledger, func()) {
	if !c.Enabled() {
		log.Info().Msg("DB_HOST empty: payment attempts kept in memory")
		return repository.NewMemoryAttemptRepo(), func() {}
	}
	db, err := database.Open(ctx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("mysql")
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mysql schema")
	}
	return repository.NewPaymentAttemptRepo(db), func() { _ = db.Close() }
}
