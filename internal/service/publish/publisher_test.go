package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/zhouzirui/tweetsmith/backend/internal/config"
)

func newPublisher(t *testing.T, status int, body string) (*Publisher, *map[string]any) {
	t.Helper()
	received := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &received)
		received["api-key"] = r.Header.Get("api-key")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewPublisher(config.PostingConfig{
		APIKey:    "alice_secret",
		Endpoint:  srv.URL,
		UIBaseURL: "https://clone.example",
		Username:  "alice",
	}, srv.Client()), &received
}

func TestPostResponses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		redirect string
		wantErr  error
	}{
		{name: "created with id", status: http.StatusCreated, body: `{"id":"abc"}`, redirect: "https://clone.example/tweet/abc"},
		{name: "tweet_id fallback", status: http.StatusOK, body: `{"tweet_id":"t-9"}`, redirect: "https://clone.example/tweet/t-9"},
		{name: "numeric id", status: http.StatusOK, body: `{"id":42}`, redirect: "https://clone.example/tweet/42"},
		{name: "null id falls back", status: http.StatusOK, body: `{"id":null,"tweet_id":"x"}`, redirect: "https://clone.example/tweet/x"},
		{name: "no id", status: http.StatusOK, body: `{}`, redirect: "https://clone.example"},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: ErrRejected},
		{name: "client error", status: http.StatusForbidden, body: `{"detail":"bad key"}`, wantErr: ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPublisher(t, tt.status, tt.body)
			reply, err := p.Post(context.Background(), "hello")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Post failed: %v", err)
			}
			if reply.Message != SuccessMessage || reply.RedirectURL != tt.redirect {
				t.Fatalf("unexpected reply %+v", reply)
			}
		})
	}
}

func TestPostNonObjectBody(t *testing.T) {
	for _, body := range []string{`not json`, `["a"]`} {
		p, _ := newPublisher(t, http.StatusOK, body)
		_, err := p.Post(context.Background(), "hello")
		if err == nil || errors.Is(err, ErrRejected) {
			t.Fatalf("body %q: expected parse error, got %v", body, err)
		}
	}
}

func TestPostSendsTrimmedTruncatedText(t *testing.T) {
	p, received := newPublisher(t, http.StatusOK, `{}`)

	if _, err := p.Post(context.Background(), "  "+strings.Repeat("x", 300)+"  "); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	got := *received
	if got["username"] != "alice" || got["api-key"] != "alice_secret" {
		t.Fatalf("unexpected payload %v", got)
	}
	if text, _ := got["text"].(string); len(text) != 280 || strings.HasPrefix(text, " ") {
		t.Fatalf("text should be trimmed and capped, got %d chars", len(text))
	}
}

func TestPostNotConfigured(t *testing.T) {
	p := NewPublisher(config.PostingConfig{APIKey: "k"}, nil)
	if p.Configured() {
		t.Fatal("publisher without endpoint must not be configured")
	}
	if _, err := p.Post(context.Background(), "hello"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"id":"a","tweet_id":"b"}`, "a"},
		{`{"id":"","tweet_id":"b"}`, "b"},
		{`{"id":0,"tweet_id":7}`, "7"},
		{`{"id":false}`, ""},
		{`{"id":1.5}`, "1.5"},
		{`{}`, ""},
	}

	for _, tt := range tests {
		if got := Identifier(gjson.Parse(tt.body)); got != tt.want {
			t.Errorf("Identifier(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestRedirectURL(t *testing.T) {
	if got := RedirectURL("https://clone.example", "abc"); got != "https://clone.example/tweet/abc" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := RedirectURL("https://clone.example", ""); got != "https://clone.example" {
		t.Fatalf("unexpected url %q", got)
	}
}
