package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/config"
	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/repository"
	"github.com/mamadbah2/herd/internal/repository/memory"
	"github.com/mamadbah2/herd/internal/repository/mongodb"
	"github.com/mamadbah2/herd/internal/repository/sheets"
	"github.com/mamadbah2/herd/internal/scheduler"
	"github.com/mamadbah2/herd/internal/server/handlers"
	"github.com/mamadbah2/herd/internal/server/router"
	authsvc "github.com/mamadbah2/herd/internal/service/auth"
	commandsvc "github.com/mamadbah2/herd/internal/service/commands"
	farmsvc "github.com/mamadbah2/herd/internal/service/farm"
	remindersvc "github.com/mamadbah2/herd/internal/service/reminders"
	reportingsvc "github.com/mamadbah2/herd/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/herd/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/herd/pkg/clients/whatsapp"
	"github.com/mamadbah2/herd/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Farm.LoadLocation()
	if err != nil {
		baseLogger.Fatal("failed to load farm time zone", zap.Error(err))
	}

	clock := dates.NewNormalizer(loc, logger.Named(baseLogger, "dates"))

	store, closeStore := openStore(cfg, clock, baseLogger)
	defer closeStore()

	provider := farmsvc.NewProvider(store, clock, cfg.Farm.FirstWeekday(), farmsvc.Profile{
		Name:     cfg.Farm.Name,
		Location: cfg.Farm.Location,
		Size:     cfg.Farm.Size,
		Units:    models.AreaUnit(cfg.Farm.Units),
	}, baseLogger.Named("svc.farm"))

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	if err := provider.Load(loadCtx); err != nil {
		baseLogger.Fatal("failed to load farm data", zap.Error(err))
	}
	cancelLoad()

	// A nil interface, not a typed nil, disables the export.
	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, production export disabled")
	}
	reportingSvc := reportingsvc.NewService(sheetsRepo, store, baseLogger.Named("svc.reporting"))

	var whatsClient whatsappclient.Client
	var notifier remindersvc.Notifier
	commandDispatcher := commandsvc.NewService(provider, baseLogger.Named("svc.commands"))
	if cfg.WhatsApp.Enabled() {
		whatsClient = whatsappclient.NewClient(cfg.WhatsApp)
	} else {
		baseLogger.Warn("whatsapp token missing, outbound messages disabled")
	}
	messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
	if cfg.WhatsApp.Enabled() {
		notifier = messagingSvc
	}
	remindersSvc := remindersvc.NewService(provider, notifier, cfg.WhatsApp.ManagerID, baseLogger.Named("svc.reminders"))

	authService := authsvc.NewService(store, authsvc.LogResetSender{Logger: baseLogger.Named("svc.auth.reset")}, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, baseLogger.Named("svc.auth"))
	authService.OnUserChanged(func(event authsvc.Event, user models.User) {
		baseLogger.Debug("user changed", zap.String("event", string(event)), zap.String("user_id", user.ID))
	})

	engine := router.New(router.Handlers{
		Farm:    handlers.NewFarmHandler(provider, clock, reportingSvc, remindersSvc, baseLogger.Named("handlers.farm")),
		Auth:    handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth")),
		Webhook: handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp")),
	}, authService, cfg.Auth, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, loc, provider, remindersSvc, reportingSvc, messagingSvc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore builds the configured Record Store and its close function.
func openStore(cfg *config.Config, clock *dates.Normalizer, baseLogger *zap.Logger) (repository.Store, func()) {
	if cfg.Store.Driver == config.DriverMemory {
		baseLogger.Warn("using the in-memory store, data is lost on restart")
		return memory.NewRepository(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, clock, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	return mongoRepo, func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}
}
