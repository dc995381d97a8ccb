package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/techcare/careauth"
	"github.com/techcare/careauth/internal/accounts"
	"github.com/techcare/careauth/internal/config"
	"github.com/techcare/careauth/internal/dependents"
	"github.com/techcare/careauth/internal/httpapi"
	"github.com/techcare/careauth/internal/logging"
	"github.com/techcare/careauth/internal/repository"
	promexport "github.com/techcare/careauth/metrics/export/prometheus"
	"golang.org/x/sync/errgroup"
)

type store interface {
	repository.Accounts
	repository.Dependents
}

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "careauth-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := newRedis(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancel()
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	repo, closeRepo, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	engineCfg, err := cfg.ToEngineConfig()
	if err != nil {
		return err
	}
	engine, err := careauth.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithAccountProvider(repo).
		WithAuditSink(careauth.NewLogrusAuditSink(logger.WithField("component", "audit"))).
		WithLogger(logger.WithField("component", "engine")).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	logSecurityReport(logger, engine.SecurityReport())

	deps := httpapi.Deps{
		Engine:          engine,
		Accounts:        accounts.NewService(repo, nil),
		Dependents:      dependents.NewService(engine, repo, repo, nil),
		Logger:          logger.WithField("component", "http"),
		RateLimitWindow: cfg.RateLimit.Window(),
		RateLimitMax:    cfg.RateLimit.Max,
		TrustedProxies:  cfg.HTTP.TrustedProxies,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
	}
	if cfg.MetricsEnabled {
		deps.Metrics = promexport.NewPrometheusExporter(engine).Handler()
	}
	router, err := httpapi.NewRouter(deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{"addr": srv.Addr, "env": cfg.Env}).Info("http server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.WithField("audit_dropped", engine.AuditDropped()).Info("server stopped")
	return nil
}

// newRedis accepts either a redis:// URL or a bare host:port.
func newRedis(raw string) (*redis.Client, error) {
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: raw}), nil
}

// openStore connects to Postgres when DB_URL is set and falls back to the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (store, func(), error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			return nil, nil, errors.New("DB_URL is required in production")
		}
		logger.Warn("DB_URL not set, using in-memory store")
		return repository.NewMemory(), func() {}, nil
	}

	db, err := repository.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	pg := repository.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	logger.Info("connected to postgres")
	return pg, closeFn, nil
}

func logSecurityReport(logger logrus.FieldLogger, r careauth.SecurityReport) {
	entry := logger.WithFields(logrus.Fields{
		"production":      r.ProductionMode,
		"signing":         r.SigningAlgorithm,
		"validation_mode": r.ValidationMode,
		"revocation":      r.RevocationActive,
		"token_ttl":       r.TokenTTL.String(),
		"otp_ttl":         r.OTPTTL.String(),
		"otp_hash":        r.OTPHashAlgorithm,
		"otp_hash_cost":   r.OTPHashCost,
		"rate_limiting":   r.RateLimitingActive,
		"ip_throttle":     r.IPThrottleActive,
		"max_verify":      r.MaxVerifyAttempts,
		"audit":           r.AuditEnabled,
		"dev_affordances": r.DevAffordanceActive,
	})
	if r.DevAffordanceActive {
		entry.Warn("security posture: development affordances enabled")
		return
	}
	entry.Info("security posture")
}
