package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/communityportal/internal/config"
	"github.com/mcoot/communityportal/internal/factory"
	"github.com/mcoot/communityportal/internal/server"
	"github.com/mcoot/communityportal/internal/web"
)

// How often idle sessions, rate limiter entries and empty hubs are swept
const sweepInterval = time.Minute

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	app, err := factory.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// The web router also mounts the JSON API under /api/v1
	router := web.NewRouter(web.RouterConfig{
		Logger:       logger,
		Clock:        app.Clock,
		Registry:     app.Registry,
		Client:       app.Client,
		Content:      app.Content,
		HubManager:   app.HubManager,
		Broadcaster:  app.Broadcaster,
		MountTimeout: cfg.NavMountTimeout,
		LoginLimiter: app.LoginLimiter,
		CookieSecure: cfg.CookieSecure,
		Metrics:      true,
		StaticDir:    findStaticDir(),
	})

	serverConfig := server.DefaultConfig("portal")
	// Event streams stay open far longer than any write timeout
	serverConfig.WriteTimeout = 0
	if port, err := strconv.Atoi(cfg.Port); err == nil {
		serverConfig.Port = port
	}
	srv := server.New(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		sweep(gctx, app, cfg.SessionIdleTimeout, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		// Streams hold their requests open until their hub closes
		app.HubManager.CloseAll()
		return srv.Shutdown(context.Background())
	})

	logger.Info("server started",
		slog.String("addr", srv.Addr()),
		slog.String("api_url", cfg.APIURL),
		slog.String("storage", cfg.StorageType),
	)

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// sweep releases idle per-client state until ctx ends
func sweep(ctx context.Context, app *factory.App, idle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions := app.Registry.EvictIdle(idle)
			hubs := app.HubManager.CleanupEmptyHubs()
			limiters := 0
			if app.LoginLimiter != nil {
				limiters = app.LoginLimiter.Sweep(10 * time.Minute)
			}
			if sessions+hubs+limiters > 0 {
				logger.Debug("swept idle state",
					slog.Int("sessions", sessions),
					slog.Int("hubs", hubs),
					slog.Int("rate_limiters", limiters),
				)
			}
		}
	}
}

// findStaticDir looks for the static files directory
func findStaticDir() string {
	candidates := []string{
		"internal/web/static",
		filepath.Join(os.Getenv("PWD"), "internal/web/static"),
	}

	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}

	// No static assets; pages load htmx from the CDN
	return ""
}
