package ai

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/storycraft/backend/internal/analysis/extract"
	"github.com/zhouzirui/storycraft/backend/internal/analysis/sanitize"
	"github.com/zhouzirui/storycraft/backend/internal/model/story"
)

// Config controls model selection, timeouts and mock behaviour.
type Config struct {
	// TextModel serves enhancement and titles.
	TextModel    string
	ModelTimeout time.Duration
	ProxyTimeout time.Duration
	// Development turns failures into canned results.
	Development bool
	// UseMock skips the network entirely. Only honoured in development.
	UseMock bool
}

// Deps are the collaborators a Service calls out to.
type Deps struct {
	Completer Completer
	Models    ModelLister
	Proxy     *ProxyAnalyzer
	Settings  SettingsSource
	Extractor extract.Extractor
	// BackendURL is probed at /health.
	BackendURL string
	HTTPClient *http.Client
}

// Service encapsulates the AI-assisted story operations.
type Service struct {
	cfg  Config
	deps Deps
	log  *logrus.Entry
}

// NewService creates a new AI service instance.
func NewService(cfg Config, deps Deps) *Service {
	if cfg.TextModel == "" {
		cfg.TextModel = "qwen3:1.7b"
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = 180 * time.Second
	}
	if cfg.ProxyTimeout <= 0 {
		cfg.ProxyTimeout = 120 * time.Second
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.Headings{}
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	deps.BackendURL = strings.TrimRight(deps.BackendURL, "/")
	return &Service{cfg: cfg, deps: deps, log: logrus.WithField("component", "ai")}
}

func (s *Service) mockMode() bool {
	return s.cfg.Development && s.cfg.UseMock
}

// AnalyzeStory loads the user's saved settings and analyzes content.
func (s *Service) AnalyzeStory(ctx context.Context, content string) (*story.AnalysisResult, error) {
	if s.mockMode() {
		s.log.Info("using mock analysis response")
		return mockAnalysis(), nil
	}
	if s.deps.Settings == nil {
		return nil, ErrSettingsNotFound
	}
	settings, err := s.deps.Settings.AISettings(ctx)
	if err != nil {
		return fallback(s, "analyze story", err, mockAnalysis())
	}
	return s.Analyze(ctx, content, settings)
}

// Analyze runs the analysis prompt on the backend selected by settings and
// parses the answer. Missing settings, model or content fail immediately.
func (s *Service) Analyze(ctx context.Context, content string, settings Settings) (*story.AnalysisResult, error) {
	if s.mockMode() {
		s.log.Info("using mock analysis response")
		return mockAnalysis(), nil
	}
	if settings == nil {
		return nil, ErrSettingsNotFound
	}
	if settings.ModelName() == "" {
		return nil, ErrNoModelSelected
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	logger := s.log.WithField("model", settings.ModelName())
	start := time.Now()

	var raw string
	var err error
	switch st := settings.(type) {
	case LocalSettings:
		logger = logger.WithField("provider", ProviderOllama)
		raw, err = s.complete(ctx, CompletionRequest{
			Model:       st.Model,
			Prompt:      AnalysisPrompt(content),
			Temperature: analyzeTemperature,
			Timeout:     s.cfg.ModelTimeout,
		})
	case ExternalSettings:
		logger = logger.WithField("provider", st.Provider)
		raw, err = s.proxyAnalyze(ctx, content, st)
	}
	if err != nil {
		return fallback(s, "analyze story", err, mockAnalysis())
	}

	result := ParseAnalysis(sanitize.CleanStructured(raw), s.deps.Extractor)
	logger.WithField("elapsed", time.Since(start)).Info("story analyzed")
	return result, nil
}

// Enhance rewrites content to be more vivid.
func (s *Service) Enhance(ctx context.Context, content string) (*story.EnhanceResult, error) {
	if s.mockMode() {
		s.log.Info("using mock enhancement response")
		return mockEnhance(), nil
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	start := time.Now()
	raw, err := s.complete(ctx, CompletionRequest{
		Model:       s.cfg.TextModel,
		Prompt:      EnhancePrompt(content),
		Temperature: enhanceTemperature,
		Timeout:     s.cfg.ModelTimeout,
	})
	if err != nil {
		return fallback(s, "enhance story", err, mockEnhance())
	}

	enhanced := strings.TrimSpace(sanitize.Clean(raw))
	if enhanced == "" {
		return fallback(s, "enhance story", ErrEmptyResponse, mockEnhance())
	}
	s.log.WithFields(logrus.Fields{"elapsed": time.Since(start), "length": len(enhanced)}).Info("story enhanced")
	return &story.EnhanceResult{EnhancedContent: enhanced}, nil
}

// GenerateTitle proposes a title for content.
func (s *Service) GenerateTitle(ctx context.Context, content string) (string, error) {
	if s.mockMode() {
		s.log.Info("using mock title generation")
		return mockTitle, nil
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	raw, err := s.complete(ctx, CompletionRequest{
		Model:       s.cfg.TextModel,
		Prompt:      TitlePrompt(content),
		Temperature: titleTemperature,
		Timeout:     s.cfg.ModelTimeout,
	})
	if err != nil {
		return fallback(s, "generate title", err, mockTitle)
	}

	title := CleanTitle(raw)
	s.log.WithField("title", title).Info("title generated")
	return title, nil
}

// HealthStatus reports each probe separately.
type HealthStatus struct {
	Backend bool `json:"backend"`
	Model   bool `json:"model"`
}

// Healthy is true only when every probe passed.
func (h HealthStatus) Healthy() bool {
	return h.Backend && h.Model
}

// Health probes the backend and the model backend concurrently. Probe
// failures are reported as false, never as errors.
func (s *Service) Health(ctx context.Context) HealthStatus {
	var status HealthStatus
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		status.Backend = s.probeBackend(ctx)
	}()
	go func() {
		defer wg.Done()
		status.Model = s.probeModels(ctx)
	}()
	wg.Wait()
	return status
}

// CheckAPIHealth is true when both the backend and the model backend answer.
func (s *Service) CheckAPIHealth(ctx context.Context) bool {
	return s.Health(ctx).Healthy()
}

func (s *Service) probeBackend(ctx context.Context) bool {
	if s.deps.BackendURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.deps.BackendURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := s.deps.HTTPClient.Do(req)
	if err != nil {
		s.log.WithError(err).Debug("backend health probe failed")
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (s *Service) probeModels(ctx context.Context) bool {
	if s.deps.Models == nil {
		return false
	}
	if _, err := s.deps.Models.ListModels(ctx); err != nil {
		s.log.WithError(err).Debug("model listing probe failed")
		return false
	}
	return true
}

func (s *Service) complete(ctx context.Context, req CompletionRequest) (string, error) {
	if s.deps.Completer == nil {
		return "", errNoBackend
	}
	return s.deps.Completer.Complete(ctx, req)
}

func (s *Service) proxyAnalyze(ctx context.Context, content string, st ExternalSettings) (string, error) {
	if s.deps.Proxy == nil {
		return "", errNoBackend
	}
	ctx, cancel := withTimeout(ctx, s.cfg.ProxyTimeout)
	defer cancel()
	return s.deps.Proxy.Analyze(ctx, content, st)
}

// fallback returns mock in development and a normalized OpError otherwise.
func fallback[T any](s *Service, op string, err error, mock T) (T, error) {
	s.log.WithError(err).WithField("op", op).Error("ai operation failed")
	if s.cfg.Development {
		s.log.WithField("op", op).Info("falling back to mock data")
		return mock, nil
	}
	var zero T
	return zero, &OpError{Op: op, Err: err}
}
