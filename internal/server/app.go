// Package server initializes and runs the report relay. It opens the
// report log, builds the webhook sender and the token resolver, and serves
// the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/Nekos-API/Nekos.Land/internal/logging"
	"github.com/Nekos-API/Nekos.Land/internal/server/auth"
	"github.com/Nekos-API/Nekos.Land/internal/server/config"
	"github.com/Nekos-API/Nekos.Land/internal/server/discord"
	"github.com/Nekos-API/Nekos.Land/internal/server/httpapi"
	"github.com/Nekos-API/Nekos.Land/internal/server/repositories"
	"github.com/Nekos-API/Nekos.Land/internal/server/repositories/reports"
	"github.com/Nekos-API/Nekos.Land/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {

	var (
		db   *sql.DB
		repo reports.Repository
	)
	if cfg.DatabaseDSN != "" {
		var err error
		db, err = repositories.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = reports.NewPostgresRepository(db)
	} else {
		logger.Warn(ctx, "no database configured, reports will not be stored")
	}

	if cfg.WebhookURL == "" {
		logger.Warn(ctx, "no webhook configured, every report will fail", "env", config.EnvWebhookURL)
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.WebhookRate), cfg.WebhookBurst)
	webhook := discord.NewWebhook(cfg.WebhookURL, nil, limiter)

	resolver := auth.NewResolver(auth.NewUserInfoClient(cfg.APIBaseURL, nil), cfg.TokenCacheTTL)
	rs := services.NewReportService(repo, webhook, cfg.AdminURL, logger)

	srv := httpapi.NewServer(cfg.ListenAddr, logger, rs, resolver, cfg.RequestTimeout, cfg.ShutdownTimeout)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "closing database", "error", err)
		}
	}
	app.logger.Info(ctx, "Stopped")
}
