package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aiService "github.com/zhouzirui/storycraft/backend/internal/service/ai"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(context.Context, aiService.CompletionRequest) (string, error) {
	return s.reply, s.err
}

func (s stubCompleter) ListModels(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []string{"qwen3:1.7b"}, nil
}

func setupRouter(t *testing.T, c stubCompleter) *chi.Mux {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backend.Close)

	svc := aiService.NewService(aiService.Config{}, aiService.Deps{
		Completer:  c,
		Models:     c,
		BackendURL: backend.URL,
	})
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func post(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeWithExplicitSettings(t *testing.T) {
	r := setupRouter(t, stubCompleter{reply: "Emotional Tone: Hopeful\nSentiment Score: 8"})

	resp := post(r, "/ai/analyze", map[string]string{
		"content":    "Once upon a time.",
		"provider":   "ollama",
		"model_name": "qwen3:1.7b",
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "Hopeful", got["emotional_tone"])
	assert.Equal(t, 8.0, got["sentiment_score"])
	assert.Equal(t, "Standard", got["readability"])
}

func TestAnalyzeWithoutSettingsIsBadRequest(t *testing.T) {
	r := setupRouter(t, stubCompleter{reply: "x"})

	resp := post(r, "/ai/analyze", map[string]string{"content": "story"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "AI model settings not found")
}

func TestAnalyzeMissingModel(t *testing.T) {
	r := setupRouter(t, stubCompleter{reply: "x"})

	resp := post(r, "/ai/analyze", map[string]string{"content": "story", "provider": "ollama"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "No AI model selected")
}

func TestEnhance(t *testing.T) {
	r := setupRouter(t, stubCompleter{reply: "<think>hmm</think>A **brighter** dawn."})

	resp := post(r, "/ai/enhance", map[string]string{"content": "A dawn."})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"enhancedContent":"A brighter dawn."}`, resp.Body.String())
}

func TestEnhanceEmptyContent(t *testing.T) {
	r := setupRouter(t, stubCompleter{reply: "x"})

	resp := post(r, "/ai/enhance", map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTitleModelFailureIsBadGateway(t *testing.T) {
	r := setupRouter(t, stubCompleter{err: errors.New("connection refused")})

	resp := post(r, "/ai/title", map[string]string{"content": "story"})

	assert.Equal(t, http.StatusBadGateway, resp.Code)
	assert.Contains(t, resp.Body.String(), "Failed to generate title. Please try again later.")
}

func TestTitle(t *testing.T) {
	r := setupRouter(t, stubCompleter{reply: `"the night harbor."`})

	resp := post(r, "/ai/title", map[string]string{"content": "story"})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"title":"The Night Harbor"}`, resp.Body.String())
}

func TestHealth(t *testing.T) {
	r := setupRouter(t, stubCompleter{})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"backend":true,"model":true,"healthy":true}`, resp.Body.String())

	r = setupRouter(t, stubCompleter{err: errors.New("down")})
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.JSONEq(t, `{"backend":true,"model":false,"healthy":false}`, resp.Body.String())
}
