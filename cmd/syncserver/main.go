// Command syncserver runs the in-memory cloud simulator. It exists for
// development and manual testing against a realistic protocol peer; the
// production cloud is a separate deployment.
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

	"github.com/meditrack/backend/internal/cloudsim"
	"github.com/meditrack/backend/internal/infrastructure/logger"
)

func main() {
	log, err := logger.NewForEnvironment(os.Getenv("MEDITRACK_APP_ENV"))
	if err != nil {
		panic("creating logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	secret := os.Getenv("MEDITRACK_SYNCSERVER_SECRET")
	if secret == "" {
		secret = "dev-only-secret"
		log.Warn("using built-in dev signing secret")
	}
	port := os.Getenv("MEDITRACK_SYNCSERVER_PORT")
	if port == "" {
		port = "9000"
	}

	sim := cloudsim.New(secret, log)
	if err := sim.AddAccount("admin@meditrack.local", "admin123", "Cloud Admin", "admin"); err != nil {
		log.Fatal("seeding dev account", zap.Error(err))
	}
	log.Info("seeded dev account", zap.String("email", "admin@meditrack.local"))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      sim.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("syncserver listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Fatal("syncserver exited", zap.Error(err))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}
