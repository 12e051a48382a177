package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const analyzeProxyPath = "/api/v1/ai/analyze"

// ProxyAnalyzer asks the backend to run an analysis on an external provider.
type ProxyAnalyzer struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

// NewProxyAnalyzer targets the backend at baseURL (without the API prefix).
func NewProxyAnalyzer(baseURL string, timeout time.Duration) *ProxyAnalyzer {
	return &ProxyAnalyzer{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logrus.WithField("component", "ai.proxy"),
	}
}

// Analyze posts {content, model_name} with the provider key as bearer and
// returns the raw response text.
func (p *ProxyAnalyzer) Analyze(ctx context.Context, content string, s ExternalSettings) (string, error) {
	body, err := json.Marshal(map[string]string{
		"content":    content,
		"model_name": s.Model,
	})
	if err != nil {
		return "", fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+analyzeProxyPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze proxy: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read analyze response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.WithFields(logrus.Fields{"status": resp.StatusCode, "body": string(data)}).Warn("analyze proxy failed")
		return "", fmt.Errorf("analyze proxy returned status %d", resp.StatusCode)
	}

	var payload struct {
		Response any `json:"response"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decode analyze response: %w", err)
	}
	text, _ := payload.Response.(string)
	return text, nil
}
