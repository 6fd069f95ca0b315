// Command syncd is the companion daemon behind the desktop shell. It
// owns the local database, drains the outbox to the cloud and serves
// the status/trigger/login API on localhost.
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

	syncapp "github.com/meditrack/backend/internal/application/sync"
	"github.com/meditrack/backend/internal/infrastructure/config"
	"github.com/meditrack/backend/internal/infrastructure/logger"
	"github.com/meditrack/backend/internal/infrastructure/persistence"
	"github.com/meditrack/backend/internal/interfaces/http/handler"
	"github.com/meditrack/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("loading configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("creating logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(cfg, log); err != nil {
		log.Fatal("syncd exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := persistence.NewDatabase(cfg, log)
	if err != nil {
		return err
	}
	if err := db.Open(ctx); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(shutdownCtx); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}()

	adapter := db.Adapter()
	branches := persistence.NewBranchRepository(adapter)
	users := persistence.NewUserRepository(adapter)
	medicines := persistence.NewMedicineRepository(adapter)
	customers := persistence.NewCustomerRepository(adapter)
	suppliers := persistence.NewSupplierRepository(adapter)
	sales := persistence.NewSaleRepository(adapter)
	purchaseOrders := persistence.NewPurchaseOrderRepository(adapter)
	grns := persistence.NewGRNRepository(adapter)
	outboxRepo := persistence.NewOutboxRepository(adapter)
	settings := persistence.NewSettingsRepository(adapter)

	client := syncapp.NewClient(cfg.Sync.RequestTimeout, log)
	pusher := syncapp.NewPusher(client, syncapp.Repositories{
		Outbox:         outboxRepo,
		Branches:       branches,
		Users:          users,
		Medicines:      medicines,
		Customers:      customers,
		Suppliers:      suppliers,
		Sales:          sales,
		PurchaseOrders: purchaseOrders,
		GRNs:           grns,
	}, cfg.Sync.BatchSize, log)
	puller := syncapp.NewPuller(client, branches, users, medicines, customers, suppliers, settings, log)
	orchestrator := syncapp.NewOrchestrator(client, pusher, puller, outboxRepo, settings, adapter, cfg.Sync, log)

	go orchestrator.RunPeriodic(ctx)

	engine := router.New(
		handler.NewSyncHandler(orchestrator, log),
		handler.NewSystemHandler(db),
		log,
	)

	srv := &http.Server{
		Addr:         "127.0.0.1:" + cfg.HTTP.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("syncd listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
