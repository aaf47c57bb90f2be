package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryanraj/portfolio-contact/internal/config"
	"github.com/aryanraj/portfolio-contact/internal/contact"
	"github.com/aryanraj/portfolio-contact/internal/ledger"
	"github.com/aryanraj/portfolio-contact/internal/logging"
	"github.com/aryanraj/portfolio-contact/internal/mailer"
	"github.com/aryanraj/portfolio-contact/internal/metrics"
	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := newLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sender, err := newSender(cfg)
	if err != nil {
		return err
	}

	limiter := ledger.NewLimiter(store, cfg.Limits.RateMax, cfg.Limits.RateWindow, nil)
	svc := contact.NewService(contact.Options{
		Limiter:  limiter,
		Sender:   sender,
		Provider: cfg.Mail.Provider,
		Envelope: contact.EnvelopeConfig{From: cfg.Mail.From, To: cfg.Mail.To},
		Limits: contact.Limits{
			NameMin:    cfg.Limits.NameMin,
			NameMax:    cfg.Limits.NameMax,
			MessageMin: cfg.Limits.MessageMin,
			MessageMax: cfg.Limits.MessageMax,
		},
		MaxBodyBytes: int64(cfg.MaxBodyKB) * 1024,
	})

	s := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(svc, cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("contact relay listening",
		"addr", cfg.ListenAddr,
		"provider", cfg.Mail.Provider,
		"ledger", cfg.Ledger.Backend,
		"rate_limit", limiter.Limit(),
		"window", limiter.Window(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

func newRouter(svc *contact.Service, cfg *config.Config, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", contact.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())

	// POST /api/contact
	mux.Handle("/api/contact", contact.NewHandler(svc, cfg.AllowedOrigins))

	return loggingMiddleware(logger, secHeaders(mux))
}

func newLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case config.BackendRedis:
		opts := &redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		if cfg.Redis.TLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		store := ledger.NewRedisLedger(redis.NewClient(opts), nil)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("redis connected", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return store, nil

	default:
		store := ledger.NewMemoryLedger()
		go store.Run(ctx, cfg.Ledger.SweepInterval, cfg.Limits.RateWindow, logger)
		go reportLedgerSize(ctx, store)
		return store, nil
	}
}

func reportLedgerSize(ctx context.Context, store *ledger.MemoryLedger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.LedgerKeys.Set(float64(store.Len()))
		}
	}
}

func newSender(cfg *config.Config) (mailer.Sender, error) {
	switch cfg.Mail.Provider {
	case config.ProviderSMTP:
		return mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:    cfg.Mail.SMTP.Host,
			Port:    cfg.Mail.SMTP.Port,
			User:    cfg.Mail.SMTP.User,
			Pass:    cfg.Mail.SMTP.Pass,
			SSL:     cfg.Mail.SMTP.SSL,
			Timeout: cfg.Mail.Timeout,
		})
	default:
		return mailer.NewResendSender(mailer.ResendConfig{
			APIKey:  cfg.Mail.Resend.APIKey,
			BaseURL: cfg.Mail.Resend.BaseURL,
			Timeout: cfg.Mail.Timeout,
		})
	}
}
