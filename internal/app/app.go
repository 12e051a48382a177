// Package app builds the service graph shared by the gateway and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/storycraft/backend/internal/apiclient"
	"github.com/zhouzirui/storycraft/backend/internal/config"
	"github.com/zhouzirui/storycraft/backend/internal/service/ai"
	"github.com/zhouzirui/storycraft/backend/internal/service/auth"
	"github.com/zhouzirui/storycraft/backend/internal/token"
)

// App holds the wired services.
type App struct {
	Config *config.Config
	Tokens token.Store
	Auth   *auth.Manager
	AI     *ai.Service
}

// New wires the token store, session manager and AI service from cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	tokens := NewTokenStore(cfg.Auth)
	mgr := auth.NewManager(cfg.Backend.APIBase(), tokens, apiclient.WithTimeout(cfg.Backend.Timeout))

	completer, models, err := newCompleter(ctx, cfg.AI)
	if err != nil {
		return nil, err
	}

	svc := ai.NewService(ai.Config{
		TextModel:    cfg.AI.TextModel,
		ModelTimeout: cfg.AI.ModelTimeout,
		ProxyTimeout: cfg.AI.ProxyTimeout,
		Development:  cfg.AI.Development(),
		UseMock:      cfg.AI.UseMock,
	}, ai.Deps{
		Completer:  completer,
		Models:     models,
		Proxy:      ai.NewProxyAnalyzer(cfg.Backend.URL, cfg.AI.ProxyTimeout),
		Settings:   ai.BackendSettings{Client: mgr.Client()},
		BackendURL: cfg.Backend.URL,
	})

	return &App{Config: cfg, Tokens: tokens, Auth: mgr, AI: svc}, nil
}

// NewTokenStore returns the keychain store when it is enabled and reachable,
// otherwise an in-memory store.
func NewTokenStore(cfg config.AuthConfig) token.Store {
	if cfg.KeyringDisabled {
		logrus.Info("keychain disabled, keeping token in memory")
		return token.NewMemoryStore()
	}
	if !token.KeyringAvailable(cfg.KeyringService) {
		logrus.Warn("keychain unavailable, keeping token in memory")
		return token.NewMemoryStore()
	}
	return token.NewKeyringStore(cfg.KeyringService)
}

func newCompleter(ctx context.Context, cfg config.AIConfig) (ai.Completer, ai.ModelLister, error) {
	switch cfg.CompletionBackend {
	case "ark":
		cm, err := cfg.Ark.NewChatModel(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init ark chat model: %w", err)
		}
		logrus.WithField("model", cfg.Ark.Model).Info("using ark completion backend")
		return ai.NewChatModelCompleter(cm), ai.StaticModels{cfg.Ark.Model}, nil
	default:
		client, err := ai.NewOllamaClient(cfg.OllamaURL, nil)
		if err != nil {
			return nil, nil, err
		}
		logrus.WithField("url", cfg.OllamaURL).Info("using ollama completion backend")
		return client, client, nil
	}
}
