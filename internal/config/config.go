package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	AI      AIConfig      `yaml:"ai"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// BackendConfig 描述持久化后端的地址与超时。
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Prefix  string        `yaml:"prefix"`
	Timeout time.Duration `yaml:"timeout"`
}

// APIBase 返回带 API 前缀的后端地址。
func (c BackendConfig) APIBase() string {
	return strings.TrimRight(c.URL, "/") + "/" + strings.Trim(c.Prefix, "/")
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Environment       string        `yaml:"environment"`
	UseMock           bool          `yaml:"use_mock"`
	CompletionBackend string        `yaml:"completion_backend"`
	OllamaURL         string        `yaml:"ollama_url"`
	TextModel         string        `yaml:"text_model"`
	ModelTimeout      time.Duration `yaml:"model_timeout"`
	ProxyTimeout      time.Duration `yaml:"proxy_timeout"`
	Ark               ArkConfig     `yaml:"ark"`
}

// Development 表示失败时是否允许回退到预置的模拟结果。
func (c AIConfig) Development() bool {
	return c.Environment == "development"
}

// ArkConfig 描述 Ark 托管模型的凭证。
type ArkConfig struct {
	APIKey    string   `yaml:"api_key"`
	AccessKey string   `yaml:"access_key"`
	SecretKey string   `yaml:"secret_key"`
	Model     string   `yaml:"model"`
	BaseURL   string   `yaml:"base_url"`
	Region    string   `yaml:"region"`
	MaxTokens *int     `yaml:"max_tokens"`
	TopP      *float64 `yaml:"top_p"`
}

// AuthConfig 描述令牌持久化与主动刷新配置。
type AuthConfig struct {
	KeyringService  string        `yaml:"keyring_service"`
	KeyringDisabled bool          `yaml:"keyring_disabled"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// LogConfig 描述日志级别与输出格式。
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
		MaxTokens: c.MaxTokens,
		TopP:      topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// Default 返回内置默认配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Backend: BackendConfig{
			URL:     "http://localhost:8000",
			Prefix:  "/api/v1",
			Timeout: 30 * time.Second,
		},
		AI: AIConfig{
			Environment:       "production",
			CompletionBackend: "ollama",
			OllamaURL:         "http://localhost:11434",
			TextModel:         "qwen3:1.7b",
			ModelTimeout:      180 * time.Second,
			ProxyTimeout:      120 * time.Second,
			Ark: ArkConfig{
				BaseURL: "https://ark.cn-beijing.volces.com/api/v3",
				Region:  "cn-beijing",
			},
		},
		Auth: AuthConfig{
			KeyringService:  "storycraft",
			RefreshInterval: 5 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load 依次应用默认值、STORYCRAFT_CONFIG 指向的 YAML 文件和环境变量。
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("STORYCRAFT_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	loaders := []func(*Config) error{
		loadServerConfig,
		loadBackendConfig,
		loadAIConfig,
		loadAuthConfig,
		loadLogConfig,
	}
	for _, load := range loaders {
		if err := load(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.AI.CompletionBackend {
	case "ollama", "ark":
	default:
		return fmt.Errorf("invalid STORYCRAFT_COMPLETION_BACKEND value %q: want ollama or ark", c.AI.CompletionBackend)
	}
	if c.Auth.RefreshInterval <= 0 {
		return fmt.Errorf("invalid STORYCRAFT_TOKEN_REFRESH_INTERVAL value %s", c.Auth.RefreshInterval)
	}
	return nil
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(c *Config) error {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return nil
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		c.Server.Addr = port
		return nil
	}

	if strings.Contains(port, " ") {
		return fmt.Errorf("invalid PORT value: %q", port)
	}

	c.Server.Addr = ":" + port
	return nil
}

func loadBackendConfig(c *Config) error {
	c.Backend.URL = getEnvOrDefault("STORYCRAFT_API_URL", c.Backend.URL)
	c.Backend.Prefix = getEnvOrDefault("STORYCRAFT_API_PREFIX", c.Backend.Prefix)

	timeout, err := parseDurationEnv("STORYCRAFT_API_TIMEOUT", c.Backend.Timeout)
	if err != nil {
		return err
	}
	c.Backend.Timeout = timeout
	return nil
}

func loadAIConfig(c *Config) error {
	ai := &c.AI
	ai.Environment = getEnvOrDefault("STORYCRAFT_ENV", ai.Environment)
	ai.CompletionBackend = strings.ToLower(getEnvOrDefault("STORYCRAFT_COMPLETION_BACKEND", ai.CompletionBackend))
	ai.OllamaURL = getEnvOrDefault("OLLAMA_URL", ai.OllamaURL)
	ai.TextModel = getEnvOrDefault("STORYCRAFT_TEXT_MODEL", ai.TextModel)

	useMock, err := parseBoolEnv("STORYCRAFT_USE_MOCK_AI", ai.UseMock)
	if err != nil {
		return err
	}
	ai.UseMock = useMock

	if ai.ModelTimeout, err = parseDurationEnv("STORYCRAFT_MODEL_TIMEOUT", ai.ModelTimeout); err != nil {
		return err
	}
	if ai.ProxyTimeout, err = parseDurationEnv("STORYCRAFT_PROXY_TIMEOUT", ai.ProxyTimeout); err != nil {
		return err
	}

	arkCfg := &ai.Ark
	arkCfg.APIKey = getEnvOrDefault("ARK_API_KEY", arkCfg.APIKey)
	arkCfg.AccessKey = getEnvOrDefault("ARK_ACCESS_KEY", arkCfg.AccessKey)
	arkCfg.SecretKey = getEnvOrDefault("ARK_SECRET_KEY", arkCfg.SecretKey)
	arkCfg.Model = getEnvOrDefault("ARK_MODEL", arkCfg.Model)
	arkCfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", arkCfg.BaseURL)
	arkCfg.Region = getEnvOrDefault("ARK_REGION", arkCfg.Region)

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return err
	}
	if maxTokens != nil {
		arkCfg.MaxTokens = maxTokens
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return err
	}
	if topP != nil {
		arkCfg.TopP = topP
	}
	return nil
}

func loadAuthConfig(c *Config) error {
	c.Auth.KeyringService = getEnvOrDefault("STORYCRAFT_KEYRING_SERVICE", c.Auth.KeyringService)

	disabled, err := parseBoolEnv("STORYCRAFT_KEYRING_DISABLED", c.Auth.KeyringDisabled)
	if err != nil {
		return err
	}
	c.Auth.KeyringDisabled = disabled

	interval, err := parseDurationEnv("STORYCRAFT_TOKEN_REFRESH_INTERVAL", c.Auth.RefreshInterval)
	if err != nil {
		return err
	}
	c.Auth.RefreshInterval = interval
	return nil
}

func loadLogConfig(c *Config) error {
	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseDurationEnv 同时接受 Go 时长（"90s"）与毫秒数（"300000"）。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
