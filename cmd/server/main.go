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

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/repository/docstore"
	"github.com/mamadbah2/pantry/internal/repository/sheets"
	"github.com/mamadbah2/pantry/internal/scheduler"
	"github.com/mamadbah2/pantry/internal/server/handlers"
	"github.com/mamadbah2/pantry/internal/server/router"
	commandsvc "github.com/mamadbah2/pantry/internal/service/commands"
	"github.com/mamadbah2/pantry/internal/service/inventory"
	reportingsvc "github.com/mamadbah2/pantry/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/pantry/internal/service/whatsapp"
	"github.com/mamadbah2/pantry/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/pantry/pkg/clients/whatsapp"
	"github.com/mamadbah2/pantry/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := docstore.Open(ctx, *cfg, baseLogger.Named("repo."+cfg.Store.Backend))
	if err != nil {
		baseLogger.Fatal("failed to open document store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close document store", zap.Error(err))
		}
	}()

	inventorySvc := inventory.NewService(store, inventory.Options{
		Collection:    cfg.Store.Collection,
		AtomicUpdates: cfg.Store.AtomicUpdates,
	}, baseLogger.Named("svc.inventory"))

	// The page loads the inventory once on start; a failure leaves it empty with an error notification.
	if _, err := inventorySvc.List(ctx); err != nil {
		baseLogger.Warn("initial inventory load failed", zap.Error(err))
	}

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Info("google sheets not configured, snapshot export disabled")
	}

	reportingSvc := reportingsvc.NewService(sheetsRepo, cfg.Reporting.LowStockThreshold, baseLogger.Named("svc.reporting"))
	inventoryHandler := handlers.NewInventoryHandler(inventorySvc, reportingSvc, baseLogger.Named("handlers.inventory"))

	var (
		webhookHandler *handlers.WebhookHandler
		sender         scheduler.Sender
	)
	if cfg.WhatsApp.Enabled() {
		var aiClient anthropic.Client
		if cfg.AI.AnthropicKey != "" {
			aiClient = anthropic.NewClient(cfg.AI.AnthropicKey)
			baseLogger.Info("anthropic ai client enabled")
		} else {
			baseLogger.Warn("anthropic api key missing, natural language processing disabled")
		}

		commandDispatcher := commandsvc.NewService(inventorySvc, reportingSvc, commandsvc.NewSessionManager(), baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, aiClient, commandDispatcher, inventorySvc, baseLogger.Named("svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		sender = messagingSvc
	} else {
		baseLogger.Warn("whatsapp token missing, chat surface disabled")
	}

	engine := router.New(inventoryHandler, webhookHandler, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, cfg.WhatsApp.ReportRecipient, reportingSvc, inventorySvc, sender, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
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
