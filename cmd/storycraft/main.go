package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/storycraft/backend/internal/app"
	"github.com/zhouzirui/storycraft/backend/internal/config"
	"github.com/zhouzirui/storycraft/backend/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadDotenv()

	root := newRootCmd(buildApp)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadDotenv reads .env when present. A missing file is the usual case for
// the CLI, so it is only logged at debug level.
func loadDotenv() {
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug("no .env file loaded, using system environment variables only")
	}
}

// buildApp loads configuration and wires services. CLI output stays quiet
// unless LOG_LEVEL asks for more.
func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if os.Getenv("LOG_LEVEL") == "" {
		level = logrus.WarnLevel.String()
	}
	if err := logging.Setup(level, cfg.Log.Format, os.Stderr); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}
