package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kmezhov/authgate"
	"github.com/kmezhov/authgate/credstore"
	"github.com/kmezhov/authgate/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := initLogger(cfg)
	if err != nil {
		zap.NewExample().Fatal("init logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := credstore.Connect(ctx, credstore.DBConfig{
		URL:               cfg.DB.DSN,
		MaxConns:          cfg.DB.MaxConns,
		MinConns:          cfg.DB.MinConns,
		MaxConnLifetime:   cfg.DB.MaxConnLifetime,
		MaxConnIdleTime:   cfg.DB.MaxConnIdleTime,
		HealthCheckPeriod: cfg.DB.HealthCheckPeriod,
		QueryTimeout:      cfg.DB.QueryTimeout,
	})
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	coreCfg := authgate.DefaultConfig()
	coreCfg.JWT.Secret = []byte(cfg.Auth.JWTSecret)
	coreCfg.JWT.SigningMethod = cfg.Auth.SigningMethod
	coreCfg.JWT.AccessTTL = cfg.Auth.AccessTTL
	coreCfg.JWT.RefreshTTL = cfg.Auth.RefreshTTL
	coreCfg.JWT.Issuer = cfg.Auth.Issuer
	coreCfg.JWT.Leeway = cfg.Auth.Leeway
	coreCfg.Session.RedisPrefix = cfg.Redis.Prefix
	if cfg.Auth.BcryptCost > 0 {
		coreCfg.Password.Cost = cfg.Auth.BcryptCost
	}
	coreCfg.Throttle.EnableLoginThrottle = cfg.Throttle.Enable
	coreCfg.Throttle.EnableIPThrottle = cfg.Throttle.EnableIPThrottle
	coreCfg.Throttle.MaxLoginAttempts = cfg.Throttle.MaxLoginAttempts
	coreCfg.Throttle.LoginCooldown = cfg.Throttle.LoginCooldown
	coreCfg.Audit.Enabled = cfg.Audit.Enable
	coreCfg.Audit.BufferSize = cfg.Audit.BufferSize
	coreCfg.Audit.DropIfFull = cfg.Audit.DropIfFull

	manager, err := authgate.New().
		WithConfig(coreCfg).
		WithRedis(redisClient).
		WithCredentialStore(credstore.NewPostgres(db)).
		WithAuditSink(&zapSink{log: log.Named("audit")}).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		log.Fatal("build manager", zap.Error(err))
	}
	defer manager.Close()

	h := &handlers{manager: manager, log: log, secure: cfg.Server.CookieSecure}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.HandleFunc("GET /auth/refresh", h.refresh)
	mux.HandleFunc("POST /auth/refresh", h.refresh)
	mux.HandleFunc("GET /auth/logout", h.logout)
	mux.HandleFunc("GET /admin/sessions", h.listSessions)
	mux.HandleFunc("DELETE /admin/sessions/{id}", h.terminateSession)
	mux.HandleFunc("DELETE /admin/sessions", h.terminateAllSessions)
	mux.HandleFunc("GET /healthz", h.healthz)

	gate := middleware.Gate(manager, middleware.Config{
		LoginRoute:     cfg.Gate.LoginRoute,
		RefreshRoute:   cfg.Gate.RefreshRoute,
		HomeRoute:      cfg.Gate.HomeRoute,
		PublicRoutes:   cfg.Gate.PublicRoutes,
		PublicPrefixes: cfg.Gate.PublicPrefixes,
		AdminPrefix:    cfg.Gate.AdminPrefix,
		Secure:         cfg.Server.CookieSecure,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      middleware.ClientIP(gate(mux)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("serve", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}

	if dropped := manager.AuditDropped(); dropped > 0 {
		log.Warn("audit events dropped", zap.Uint64("count", dropped))
	}
}
