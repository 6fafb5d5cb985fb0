package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/rsvp-agenda/api/swagger"
	"github.com/noah-isme/rsvp-agenda/internal/clients"
	"github.com/noah-isme/rsvp-agenda/internal/handler"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	"github.com/noah-isme/rsvp-agenda/internal/repository"
	"github.com/noah-isme/rsvp-agenda/internal/service"
	"github.com/noah-isme/rsvp-agenda/pkg/bus"
	"github.com/noah-isme/rsvp-agenda/pkg/cache"
	"github.com/noah-isme/rsvp-agenda/pkg/config"
	"github.com/noah-isme/rsvp-agenda/pkg/jobs"
	"github.com/noah-isme/rsvp-agenda/pkg/logger"
	"github.com/noah-isme/rsvp-agenda/pkg/storage"
)

// @title RSVP Agenda Gateway
// @version 1.0.0
// @description Local agenda and attendance gateway in front of the calendar service.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	calendar := clients.NewCalendarClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, logr, metricsSvc)

	store, closeStore, err := newSessionStore(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init session store", "store", cfg.Session.Store, "error", err)
	}
	defer closeStore()

	signals := bus.New(logr)
	sessionSvc := service.NewSessionService(store, calendar, signals, logr)
	if err := sessionSvc.Restore(ctx); err != nil {
		logr.Sugar().Warnw("failed to restore session", "error", err)
	}

	validate := validator.New()
	reconciler := service.NewReconcilerService(calendar, calendar, sessionSvc, metricsSvc, logr)
	agenda := service.NewAgendaService(calendar, sessionSvc, reconciler, signals, metricsSvc, validate, logr, models.GroupMode(cfg.Agenda.DefaultGroup))
	exporter := service.NewExportService(agenda, service.ExportConfig{Title: cfg.Agenda.ExportTitle}, logr, nil, nil, nil)

	refreshQueue := jobs.NewQueue("agenda-refresh", agenda.HandleRefreshJob, jobs.QueueConfig{
		Workers:    cfg.Refresh.Workers,
		MaxRetries: cfg.Refresh.Retries,
		RetryDelay: cfg.Refresh.RetryDelay,
		Coalesce:   true,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	unsubscribe := agenda.Subscribe(refreshQueue)
	defer unsubscribe()

	if cfg.Refresh.Cron != "" {
		poller, err := jobs.NewPoller(cfg.Refresh.Cron, func() { agenda.Invalidate("cron") }, logr)
		if err != nil {
			logr.Sugar().Fatalw("invalid refresh schedule", "error", err)
		}
		poller.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			poller.Stop(stopCtx)
		}()
	}

	agenda.Invalidate("startup")

	r := newRouter(cfg, logr, metricsSvc, routeHandlers{
		agenda:  handler.NewAgendaHandler(agenda, exporter),
		events:  handler.NewEventHandler(agenda),
		rsvp:    handler.NewRSVPHandler(reconciler),
		session: handler.NewSessionHandler(sessionSvc),
		metrics: handler.NewMetricsHandler(metricsSvc, agenda.Loaded),
	}, sessionSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "remote", cfg.Remote.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func newSessionStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.SessionStore, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client, closer, err := cache.OpenSessionClient(ctx, cfg.Redis, logr)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSessionRepository(client, cfg.Session.Key, logr), closer, nil
	case config.SessionStoreFile, "":
		files, err := storage.NewLocalStorage(cfg.Session.Dir)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewFileSessionRepository(files, cfg.Session.Key), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}
