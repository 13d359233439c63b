package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flybot/internal/config"
	httptransport "flybot/internal/http"
	"flybot/internal/http/middleware"
	"flybot/internal/infra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := infra.NewLogger(cfg.IsProduction(), cfg.Log.Level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}
			router := httptransport.NewRouter(httptransport.RouterDeps{
				Conversations:  a.registry,
				Itineraries:    a.itineraries,
				Feedback:       a.feedback,
				Limiter:        middleware.NewRateLimiter(cfg.Rate.Limit, cfg.Rate.Burst),
				RequestTimeout: cfg.HTTP.RequestTimeout,
				Logger:         logger.Named("http"),
			})

			go a.registry.RunJanitor(ctx, janitorInterval(cfg.Conversation.IdleTimeout), cfg.Conversation.IdleTimeout)

			logger.Info("starting flybot", zap.String("env", cfg.Env), zap.String("version", Version))
			return httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, logger).Run(ctx)
		},
	}
}

// janitorInterval sweeps a few times per idle window, at most once a minute.
func janitorInterval(idle time.Duration) time.Duration {
	interval := idle / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
