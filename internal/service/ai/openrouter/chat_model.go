// Package openrouter implements an eino chat model backed by an OpenAI-compatible
// chat/completions endpoint such as OpenRouter.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the public OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

const (
	defaultTimeout  = 30 * time.Second
	maxErrorSnippet = 512
)

// ErrMalformedResponse is returned when a 2xx body does not carry a first-choice message.
var ErrMalformedResponse = errors.New("malformed completion response")

// UpstreamError reports a non-2xx answer from the completion endpoint.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Message)
}

// Config configures the chat model.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Referer    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// ChatModel sends one POST per Generate call. It holds no conversation state.
type ChatModel struct {
	cfg    Config
	client *http.Client
}

// NewChatModel validates cfg and applies defaults.
func NewChatModel(cfg Config) (*ChatModel, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openrouter: model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &ChatModel{cfg: cfg, client: client}, nil
}

type options struct {
	Title string
}

// WithTitle sets the X-Title attribution header for a single call.
func WithTitle(title string) model.Option {
	return model.WrapImplSpecificOptFn(func(o *options) {
		o.Title = title
	})
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

// Generate sends the messages and returns the first choice as an assistant message.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	modelName := m.cfg.Model
	common := model.GetCommonOptions(&model.Options{Model: &modelName}, opts...)
	specific := model.GetImplSpecificOptions(&options{}, opts...)

	payload := completionRequest{
		Model:       modelName,
		Messages:    make([]wireMessage, 0, len(input)),
		Temperature: common.Temperature,
		TopP:        common.TopP,
		MaxTokens:   common.MaxTokens,
		Stop:        common.Stop,
	}
	if common.Model != nil && *common.Model != "" {
		payload.Model = *common.Model
	}
	for _, msg := range input {
		if msg == nil {
			continue
		}
		payload.Messages = append(payload.Messages, wireMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if m.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", m.cfg.Referer)
	}
	if specific.Title != "" {
		req.Header.Set("X-Title", specific.Title)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	return parseCompletion(raw)
}

// Stream is not supported by the relay; it delivers the Generate result as one chunk.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// BindTools always fails; tool calling is outside the relay's contract.
func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error {
	return errors.New("openrouter: tool binding is not supported")
}

func parseCompletion(raw []byte) (*schema.Message, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformedResponse)
	}

	parsed := gjson.ParseBytes(raw)
	content := parsed.Get("choices.0.message.content")
	if !content.Exists() || content.Type != gjson.String {
		if msg := parsed.Get("error.message"); msg.Exists() {
			return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, msg.String())
		}
		return nil, fmt.Errorf("%w: missing choices[0].message.content", ErrMalformedResponse)
	}

	msg := schema.AssistantMessage(content.String(), nil)
	msg.ResponseMeta = &schema.ResponseMeta{
		FinishReason: parsed.Get("choices.0.finish_reason").String(),
	}
	if usage := parsed.Get("usage"); usage.Exists() {
		msg.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
		}
	}
	return msg, nil
}

func errorMessage(raw []byte) string {
	if gjson.ValidBytes(raw) {
		if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() && msg.String() != "" {
			return msg.String()
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorSnippet {
		text = text[:maxErrorSnippet] + "..."
	}
	return text
}
