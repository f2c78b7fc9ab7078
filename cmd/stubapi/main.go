// Command stubapi runs a stand-in for the portal's remote REST API with
// seeded content and two accounts, for local development and demos.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/sethvargo/go-envconfig"

	"github.com/mcoot/communityportal/internal/middleware"
	"github.com/mcoot/communityportal/internal/server"
	"github.com/mcoot/communityportal/internal/stubapi"
)

type config struct {
	Port        int           `env:"STUBAPI_PORT, default=44315"`
	Secret      string        `env:"STUBAPI_JWT_SECRET, default=local-development-secret"`
	TokenTTL    time.Duration `env:"STUBAPI_TOKEN_TTL, default=24h"`
	AutoApprove bool          `env:"STUBAPI_AUTO_APPROVE, default=false"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var cfg config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	stub := stubapi.New(stubapi.Config{
		Logger:      logger,
		Secret:      []byte(cfg.Secret),
		TokenTTL:    cfg.TokenTTL,
		AutoApprove: cfg.AutoApprove,
	})
	if err := stub.SeedAccounts(); err != nil {
		logger.Error("failed to seed accounts", slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.PathPrefix("/").Handler(stub.Handler())

	serverConfig := server.DefaultConfig("stubapi")
	serverConfig.Port = cfg.Port
	srv := server.New(r, serverConfig, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("stub API started",
		slog.String("addr", srv.Addr()),
		slog.String("admin", stubapi.AdminEmail),
		slog.String("member", stubapi.MemberEmail),
	)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}
