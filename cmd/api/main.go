package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/storycraft/backend/internal/app"
	"github.com/zhouzirui/storycraft/backend/internal/config"
	"github.com/zhouzirui/storycraft/backend/internal/handler"
	"github.com/zhouzirui/storycraft/backend/internal/logging"
	"github.com/zhouzirui/storycraft/backend/internal/service/auth"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Warn("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, nil); err != nil {
		logrus.WithError(err).Fatal("failed to configure logging")
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize services")
	}

	session := a.Auth.Restore(ctx)
	logrus.WithField("state", session.State).Info("session restored")

	refresher, err := auth.NewRefresher(a.Auth, cfg.Auth.RefreshInterval)
	if err != nil {
		logrus.WithError(err).Fatal("failed to schedule token refresh")
	}
	refresher.Start(ctx)

	if !a.AI.CheckAPIHealth(ctx) {
		logrus.Warn("backend or model engine not reachable yet, AI requests may fail")
	}

	router := handler.NewRouter(a.Auth, a.AI)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logrus.WithField("addr", addr).Info("StoryCraft gateway listening")
	if err := runServer(ctx, srv); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
