package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"xhub-signature/internal/common/logging"
	"xhub-signature/internal/common/utils"
	"xhub-signature/internal/config"
	"xhub-signature/internal/handlers"
	"xhub-signature/internal/middleware"
	"xhub-signature/internal/redis"
	"xhub-signature/internal/server"
	"xhub-signature/internal/signature"
)

type serveCommand struct {
	EnvFile string `long:"env-file" default:".env" description:"Environment file loaded before reading config"`
	Port    string `long:"port" description:"Override PORT"`
}

// Execute implements flags.Commander
func (c *serveCommand) Execute(args []string) error {
	if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &exitError{code: 2, err: err}
	}

	cfg := config.Load()
	if c.Port != "" {
		cfg.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: 2, err: err}
	}

	if err := logging.InitGlobalLogger(cfg.LogLevel); err != nil {
		return &exitError{code: 2, err: err}
	}
	defer logging.MustSync()
	logger := logging.GetGlobalLogger()

	engine, err := signature.New(signature.Options{Secret: cfg.Secret, Hashes: cfg.Hashes})
	if err != nil {
		return &exitError{code: 2, err: err}
	}

	var guard *redis.Client
	if cfg.RedisAddress != "" {
		guard, err = connectGuard(context.Background(), cfg, utils.DefaultRetryConfig())
		if err != nil {
			logger.Error("Failed to connect delivery guard", err, logging.String("address", cfg.RedisAddress))
			return &exitError{code: 2, err: err}
		}
		defer guard.Close()
		logger.Info("Delivery guard enabled", logging.String("address", cfg.RedisAddress))
	}

	router := newRouter(engine, cfg, guard, logger)
	srv := server.New(router, cfg.Port, cfg.TLSCert, cfg.TLSKey, logger)
	if err := srv.Start(); err != nil {
		return &exitError{code: 2, err: err}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		logger.Info("Shutting down server")
	case err := <-srv.Errors():
		return &exitError{code: 2, err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
		return &exitError{code: 2, err: err}
	}

	logger.Info("Server exited")
	return nil
}

// connectGuard dials Redis, retrying while it starts up
func connectGuard(ctx context.Context, cfg *config.Config, retry utils.RetryConfig) (*redis.Client, error) {
	var client *redis.Client
	err := utils.RetryWithBackoff(ctx, retry, func() error {
		var err error
		client, err = redis.NewClient(&redis.Config{
			Address:   cfg.RedisAddress,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDBNumber(),
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newRouter wires the webhook and health routes. guard may be nil.
func newRouter(engine *signature.Engine, cfg *config.Config, guard *redis.Client, logger logging.Logger) *mux.Router {
	opts := middleware.XHubOptions{
		AllowUnsignedGet: cfg.AllowUnsignedGet,
		DeliveryTTL:      cfg.DeliveryTTLDuration(),
		Logger:           logger,
	}
	var health handlers.HealthChecker
	if guard != nil {
		opts.Guard = guard
		health = guard
	}

	h := handlers.New(logger, health)
	xhub := middleware.NewXHub(engine, opts)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware(logger))

	router.Handle("/webhook", xhub.Middleware()(http.HandlerFunc(h.HandleWebhook))).Methods(http.MethodPost, http.MethodGet)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	return router
}
