package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"
)

// CompletionRequest is one text-completion call.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	Timeout     time.Duration
}

// Completer turns a prompt into raw model text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ModelLister enumerates the models a backend can serve.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// OllamaClient talks to a local Ollama engine (/api/generate, /api/tags).
type OllamaClient struct {
	client *api.Client
}

// NewOllamaClient creates a client for baseURL, e.g. http://localhost:11434.
func NewOllamaClient(baseURL string, httpClient *http.Client) (*OllamaClient, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaClient{client: api.NewClient(parsed, httpClient)}, nil
}

func (c *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	stream := false
	var out strings.Builder
	err := c.client.Generate(ctx, &api.GenerateRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Stream:  &stream,
		Options: map[string]any{"temperature": req.Temperature},
	}, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return out.String(), nil
}

func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama list: %w", err)
	}
	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

// ChatModelCompleter runs completions on an eino chat model, such as a
// hosted Ark endpoint. The endpoint decides the model, so req.Model is ignored.
type ChatModelCompleter struct {
	chatModel model.BaseChatModel
	template  prompt.ChatTemplate
}

// NewChatModelCompleter wraps cm with a single user-message template.
func NewChatModelCompleter(cm model.BaseChatModel) *ChatModelCompleter {
	return &ChatModelCompleter{
		chatModel: cm,
		template:  prompt.FromMessages(schema.FString, schema.UserMessage("{prompt}")),
	}
}

func (c *ChatModelCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	msgs, err := c.template.Format(ctx, map[string]any{"prompt": req.Prompt})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}
	msg, err := c.chatModel.Generate(ctx, msgs, model.WithTemperature(float32(req.Temperature)))
	if err != nil {
		return "", fmt.Errorf("chat model generate: %w", err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// StaticModels lists a fixed set of models, for hosted backends bound to one
// endpoint.
type StaticModels []string

func (m StaticModels) ListModels(context.Context) ([]string, error) {
	if len(m) == 0 {
		return nil, errNoBackend
	}
	return m, nil
}
