package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/storycraft/backend/internal/app"
	"github.com/zhouzirui/storycraft/backend/internal/service/ai"
	"github.com/zhouzirui/storycraft/backend/internal/service/auth"
	"github.com/zhouzirui/storycraft/backend/internal/token"
)

type cannedCompleter string

func (c cannedCompleter) Complete(context.Context, ai.CompletionRequest) (string, error) {
	return string(c), nil
}

func testBuilder(t *testing.T, reply string) builder {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backend.Close)

	return func(ctx context.Context) (*app.App, error) {
		tokens := token.NewMemoryStore()
		svc := ai.NewService(ai.Config{}, ai.Deps{
			Completer:  cannedCompleter(reply),
			Models:     ai.StaticModels{"m"},
			BackendURL: backend.URL,
		})
		return &app.App{
			Tokens: tokens,
			Auth:   auth.NewManager(backend.URL+"/api/v1", tokens),
			AI:     svc,
		}, nil
	}
}

func run(t *testing.T, b builder, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(b)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTitleFromStdin(t *testing.T) {
	out, err := run(t, testBuilder(t, "**the quiet harbor**"), "A story about a harbor.", "title")
	require.NoError(t, err)
	assert.Equal(t, "The Quiet Harbor\n", out)
}

func TestEnhanceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.txt")
	require.NoError(t, os.WriteFile(path, []byte("It rained."), 0o600))

	out, err := run(t, testBuilder(t, "<think>plan</think>Rain hammered the roof."), "", "enhance", path)
	require.NoError(t, err)
	assert.Equal(t, "Rain hammered the roof.\n", out)
}

func TestAnalyzeWithProvider(t *testing.T) {
	out, err := run(t, testBuilder(t, "Emotional Tone: Calm\nSentiment Score: 7"), "A calm story.",
		"analyze", "--provider", "ollama", "--model", "m")
	require.NoError(t, err)
	assert.Contains(t, out, `"emotional_tone": "Calm"`)
	assert.Contains(t, out, `"sentiment_score": 7`)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	_, err := run(t, testBuilder(t, "x"), "   ", "analyze")
	assert.ErrorIs(t, err, ai.ErrEmptyContent)
}

func TestLoginRequiresFlags(t *testing.T) {
	_, err := run(t, testBuilder(t, ""), "", "login", "--email", "a@b.c")
	assert.EqualError(t, err, "--email and --password are required")
}

func TestWhoamiAnonymous(t *testing.T) {
	_, err := run(t, testBuilder(t, ""), "", "whoami")
	assert.EqualError(t, err, "not logged in")
}

func TestHealth(t *testing.T) {
	out, err := run(t, testBuilder(t, ""), "", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: ok")
	assert.Contains(t, out, "model:   ok")
}
