package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/auth"
	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/hub"
	"github.com/mamadbah2/restopos/internal/repository/mongodb"
	"github.com/mamadbah2/restopos/internal/repository/sheets"
	"github.com/mamadbah2/restopos/internal/repository/statefile"
	"github.com/mamadbah2/restopos/internal/scheduler"
	"github.com/mamadbah2/restopos/internal/server/handlers"
	"github.com/mamadbah2/restopos/internal/server/router"
	"github.com/mamadbah2/restopos/internal/server/wshub"
	commandsvc "github.com/mamadbah2/restopos/internal/service/commands"
	reportingsvc "github.com/mamadbah2/restopos/internal/service/reporting"
	"github.com/mamadbah2/restopos/internal/service/store"
	"github.com/mamadbah2/restopos/pkg/clients/webhook"
	"github.com/mamadbah2/restopos/pkg/logger"
)

func serve(ctx context.Context, envFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	baseLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	hasher := auth.Bcrypt{}
	adminHash := cfg.Auth.AdminPasswordHash
	if adminHash == "" {
		baseLogger.Warn("ADMIN_PASSWORD_HASH not set, hashing ADMIN_PASSWORD at startup")
		if adminHash, err = hasher.Hash(cfg.Auth.AdminPassword); err != nil {
			return err
		}
	}

	stateRepo := statefile.NewRepository(cfg.Storage.StateFile, cfg.Storage.BackupDir, baseLogger.Named("repo.statefile"))
	st, err := store.Open(stateRepo, baseLogger.Named("store"))
	if err != nil {
		return err
	}

	sinks, closeSinks, err := reportSinks(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	defer closeSinks()

	h := hub.New(baseLogger.Named("hub"))
	commandDispatcher := commandsvc.NewService(st, h, hasher, cfg.Location(), baseLogger.Named("svc.commands"))
	hubStopped := make(chan struct{})
	go func() {
		defer close(hubStopped)
		h.Run(commandDispatcher)
	}()

	reader := commandsvc.NewLoopReader(h, commandDispatcher)
	authSvc := auth.NewService(auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), hasher, reader, cfg.Auth.AdminUsername, adminHash, baseLogger.Named("svc.auth"))

	wsServer := wshub.New(h, authSvc, baseLogger.Named("wshub"))
	engine := router.New(
		handlers.NewAuthHandler(authSvc, baseLogger.Named("handlers.auth")),
		handlers.NewHealthHandler(h, h.Done()),
		wsServer,
		baseLogger.Named("router"),
	)

	reportingSvc := reportingsvc.NewService(cfg.Location(), baseLogger.Named("svc.reporting"))
	sched := scheduler.NewScheduler(*cfg, reader, reportingSvc, stateRepo, sinks, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
	sched.Stop()
	h.Stop()
	<-hubStopped
	wsServer.Wait()
	baseLogger.Info("server stopped", zap.String("state", stateRepo.Path()))
	return nil
}

// reportSinks connects the configured daily report destinations.
func reportSinks(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) (map[string]scheduler.Sink, func(), error) {
	sinks := make(map[string]scheduler.Sink)
	closers := []func(){}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.MongoDB.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to init mongodb repository: %w", err)
		}
		sinks["mongodb"] = mongoRepo
		closers = append(closers, func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		})
	}

	if cfg.Sheets.SpreadsheetID != "" {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to init sheets repository: %w", err)
		}
		sinks["sheets"] = sheets.NewReportSink(sheetsRepo, "")
	}

	if cfg.Webhook.URL != "" {
		sinks["webhook"] = webhook.NewClient(cfg.Webhook)
	}

	if len(sinks) == 0 {
		baseLogger.Warn("no report sink configured, daily reports are only logged")
		sinks["log"] = scheduler.SinkFunc(func(_ context.Context, report models.DailyReport) error {
			baseLogger.Info("daily report", zap.Any("report", report))
			return nil
		})
	}
	return sinks, closeAll, nil
}
