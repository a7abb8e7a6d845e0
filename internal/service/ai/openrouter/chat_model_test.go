package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
)

type capturedRequest struct {
	header http.Header
	path   string
	body   completionRequest
}

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.header = r.Header.Clone()
		captured.path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func newTestModel(t *testing.T, baseURL string) *ChatModel {
	t.Helper()
	m, err := NewChatModel(Config{
		BaseURL: baseURL + "/",
		APIKey:  "sk-test",
		Model:   "deepseek/deepseek-chat-v3-0324:free",
		Referer: "http://localhost",
	})
	if err != nil {
		t.Fatalf("NewChatModel failed: %v", err)
	}
	return m
}

func TestGenerateSendsRequestAndParsesChoice(t *testing.T) {
	srv, captured := newUpstream(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"  hi  "},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`)
	m := newTestModel(t, srv.URL)

	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You are a helpful assistant."),
		schema.UserMessage("hello"),
	}, WithTitle("Chatbot"))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if msg.Content != "  hi  " {
		t.Fatalf("content should be returned verbatim, got %q", msg.Content)
	}
	if msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil || msg.ResponseMeta.Usage.TotalTokens != 4 {
		t.Fatalf("unexpected response meta %+v", msg.ResponseMeta)
	}

	if captured.path != "/chat/completions" {
		t.Fatalf("unexpected path %q", captured.path)
	}
	if got := captured.header.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("unexpected Authorization %q", got)
	}
	if got := captured.header.Get("HTTP-Referer"); got != "http://localhost" {
		t.Fatalf("unexpected HTTP-Referer %q", got)
	}
	if got := captured.header.Get("X-Title"); got != "Chatbot" {
		t.Fatalf("unexpected X-Title %q", got)
	}
	if captured.body.Model != "deepseek/deepseek-chat-v3-0324:free" {
		t.Fatalf("unexpected model %q", captured.body.Model)
	}
	if len(captured.body.Messages) != 2 ||
		captured.body.Messages[0].Role != "system" ||
		captured.body.Messages[1].Role != "user" ||
		captured.body.Messages[1].Content != "hello" {
		t.Fatalf("unexpected messages %+v", captured.body.Messages)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusUnauthorized, `{"error":{"message":"No auth credentials found","code":401}}`)
	m := newTestModel(t, srv.URL)

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.StatusCode != http.StatusUnauthorized || upstream.Message != "No auth credentials found" {
		t.Fatalf("unexpected upstream error %+v", upstream)
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty choices", `{"choices":[]}`},
		{"no choices", `{"id":"x"}`},
		{"not json", `<html></html>`},
		{"null content", `{"choices":[{"message":{"content":null}}]}`},
		{"error payload", `{"error":{"message":"rate limited"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, http.StatusOK, tt.body)
			m := newTestModel(t, srv.URL)

			_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestStreamDeliversSingleChunk(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, `{"choices":[{"message":{"content":"chunk"}}]}`)
	m := newTestModel(t, srv.URL)

	reader, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	defer reader.Close()

	msg, err := reader.Recv()
	if err != nil || msg.Content != "chunk" {
		t.Fatalf("unexpected first chunk %v, %v", msg, err)
	}
	if _, err := reader.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after single chunk, got %v", err)
	}
}

func TestNewChatModelRequiresModel(t *testing.T) {
	if _, err := NewChatModel(Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing model")
	}
}
