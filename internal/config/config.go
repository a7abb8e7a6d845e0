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

	"github.com/zhouzirui/tweetsmith/backend/internal/service/ai/openrouter"
)

const (
	// ProviderOpenRouter 使用 OpenRouter 兼容的 chat/completions 接口。
	ProviderOpenRouter = "openrouter"
	// ProviderArk 使用火山方舟模型。
	ProviderArk = "ark"

	defaultModel         = "deepseek/deepseek-chat-v3-0324:free"
	defaultAllowedOrigin = "https://yupcha-cgx.pages.dev"
	guestUsername        = "guest"
)

// Config 聚合整个服务的配置项。加载后不再修改。
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	EventLog EventLogConfig
	Posting  PostingConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	eventLog, err := loadEventLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		EventLog: eventLog,
		Posting:  loadPostingConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origin := getEnvOrDefault("CORS_ALLOWED_ORIGIN", defaultAllowedOrigin)

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port, AllowedOrigin: origin}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigin: origin}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Referer    string
	Timeout    time.Duration
	ArkAPIKey  string
	ArkBaseURL string
	ArkRegion  string
}

// Enabled 表示是否提供了当前 provider 所需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Provider == ProviderArk {
		return c.ArkAPIKey != "" && c.Model != ""
	}
	return c.APIKey != ""
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	switch c.Provider {
	case ProviderArk:
		if !c.Enabled() {
			return nil, fmt.Errorf("Ark 凭证或模型配置缺失，需要 ARK_API_KEY 与 MODEL")
		}
		timeout := c.Timeout
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL: c.ArkBaseURL,
			Region:  c.ArkRegion,
			APIKey:  c.ArkAPIKey,
			Model:   c.Model,
			Timeout: &timeout,
		})
	case ProviderOpenRouter:
		// 缺少 API key 时仍然创建模型，请求由上游以 401 拒绝。
		chatModel, err := openrouter.NewChatModel(openrouter.Config{
			BaseURL: c.BaseURL,
			APIKey:  c.APIKey,
			Model:   c.Model,
			Referer: c.Referer,
			Timeout: c.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("UPSTREAM_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT_SECONDS value %d: must be positive", *override)
		}
		timeoutSeconds = *override
	}

	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenRouter))
	if provider != ProviderOpenRouter && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:   provider,
		APIKey:     strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		Model:      getEnvOrDefault("MODEL", defaultModel),
		BaseURL:    getEnvOrDefault("OPENROUTER_BASE_URL", openrouter.DefaultBaseURL),
		Referer:    getEnvOrDefault("OPENROUTER_REFERER", "http://localhost"),
		Timeout:    time.Duration(timeoutSeconds) * time.Second,
		ArkAPIKey:  strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkBaseURL: getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:  getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}, nil
}

// EventLogConfig 描述可选的事件日志落地配置。
type EventLogConfig struct {
	URL         string
	Key         string
	DatabaseURL string
	Strict      bool
}

// RESTEnabled 只有 URL 与 Key 同时存在时才写入 REST 接口。
func (c EventLogConfig) RESTEnabled() bool {
	return c.URL != "" && c.Key != ""
}

func loadEventLogConfig() (EventLogConfig, error) {
	strict, err := parseBoolEnv("EVENT_LOG_STRICT", false)
	if err != nil {
		return EventLogConfig{}, err
	}

	return EventLogConfig{
		URL:         strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		Key:         strings.TrimSpace(os.Getenv("SUPABASE_KEY")),
		DatabaseURL: strings.TrimSpace(os.Getenv("EVENT_LOG_DATABASE_URL")),
		Strict:      strict,
	}, nil
}

// PostingConfig 描述推文发布服务（Twitter clone）配置。
type PostingConfig struct {
	APIKey    string
	Endpoint  string
	UIBaseURL string
	Username  string
}

// Configured 表示发布所需的 key 与 endpoint 是否齐全。
func (c PostingConfig) Configured() bool {
	return c.APIKey != "" && c.Endpoint != ""
}

func loadPostingConfig() PostingConfig {
	apiKey := strings.TrimSpace(os.Getenv("TWITTER_CLONE_API_KEY"))
	return PostingConfig{
		APIKey:    apiKey,
		Endpoint:  strings.TrimSpace(os.Getenv("TWITTER_CLONE_POST_ENDPOINT")),
		UIBaseURL: strings.TrimSpace(os.Getenv("TWITTER_CLONE_URL")),
		Username:  UsernameFromKey(apiKey),
	}
}

// UsernameFromKey 取 API key 第一个下划线之前的部分作为用户名，这是发布服务的 key 格式约定。
func UsernameFromKey(apiKey string) string {
	name, _, found := strings.Cut(apiKey, "_")
	if !found {
		return guestUsername
	}
	return name
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
