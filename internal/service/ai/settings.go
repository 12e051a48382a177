package ai

import (
	"context"
	"errors"
	"net/http"

	"github.com/zhouzirui/storycraft/backend/internal/apiclient"
)

// ProviderOllama selects the local model backend.
const ProviderOllama = "ollama"

// Settings selects where a completion runs. It is either LocalSettings or
// ExternalSettings.
type Settings interface {
	ModelName() string
	isSettings()
}

// LocalSettings runs the model on the local Ollama engine.
type LocalSettings struct {
	Model string
}

func (s LocalSettings) ModelName() string { return s.Model }
func (LocalSettings) isSettings()         {}

// ExternalSettings routes through the backend's analyze proxy.
type ExternalSettings struct {
	Provider string
	Model    string
	APIKey   string
}

func (s ExternalSettings) ModelName() string { return s.Model }
func (ExternalSettings) isSettings()         {}

// ParseSettings maps the loose provider/model/key triple onto a variant.
func ParseSettings(provider, model, apiKey string) Settings {
	if provider == ProviderOllama {
		return LocalSettings{Model: model}
	}
	return ExternalSettings{Provider: provider, Model: model, APIKey: apiKey}
}

// SettingsSource loads the user's saved model choice. A nil Settings with a
// nil error means the user has not configured one.
type SettingsSource interface {
	AISettings(ctx context.Context) (Settings, error)
}

// BackendSettings reads the model choice from the backend's /ai-model/ resource.
type BackendSettings struct {
	Client *apiclient.Client
}

func (b BackendSettings) AISettings(ctx context.Context) (Settings, error) {
	var wire struct {
		Provider  string `json:"provider"`
		ModelName string `json:"model_name"`
		APIKey    string `json:"api_key"`
	}
	if err := b.Client.GetJSON(ctx, "/ai-model/", &wire); err != nil {
		var se *apiclient.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if wire.Provider == "" && wire.ModelName == "" {
		return nil, nil
	}
	return ParseSettings(wire.Provider, wire.ModelName, wire.APIKey), nil
}
