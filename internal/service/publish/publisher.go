// Package publish forwards tweets to the external posting service (the Twitter clone).
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/zhouzirui/tweetsmith/backend/internal/config"
	tweetmodel "github.com/zhouzirui/tweetsmith/backend/internal/model/tweet"
)

// SuccessMessage is returned to clients once the posting service accepted a tweet.
const SuccessMessage = "Tweet posted successfully"

var (
	ErrNotConfigured = errors.New("posting service is not configured")
	ErrRejected      = errors.New("posting service rejected the post")
)

// Publisher posts tweets with the service's api-key header; the service does not accept bearer tokens.
type Publisher struct {
	cfg    config.PostingConfig
	client *http.Client
}

// NewPublisher creates a publisher. A nil client gets a 30s timeout.
func NewPublisher(cfg config.PostingConfig, client *http.Client) *Publisher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Publisher{cfg: cfg, client: client}
}

// Configured reports whether the posting key and endpoint are both set.
func (p *Publisher) Configured() bool {
	return p.cfg.Configured()
}

type postPayload struct {
	Username string `json:"username"`
	Text     string `json:"text"`
}

// Post sends text and returns the redirect to the published tweet.
func (p *Publisher) Post(ctx context.Context, text string) (tweetmodel.PostReply, error) {
	if !p.cfg.Configured() {
		return tweetmodel.PostReply{}, ErrNotConfigured
	}

	payload := postPayload{
		Username: p.cfg.Username,
		Text:     tweetmodel.Truncate(strings.TrimSpace(text)),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return tweetmodel.PostReply{}, fmt.Errorf("encode post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return tweetmodel.PostReply{}, fmt.Errorf("build post request: %w", err)
	}
	req.Header.Set("api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	log.Printf("[publish] posting to %s as %s (%d chars)", p.cfg.Endpoint, payload.Username, len([]rune(payload.Text)))

	resp, err := p.client.Do(req)
	if err != nil {
		return tweetmodel.PostReply{}, fmt.Errorf("post request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return tweetmodel.PostReply{}, fmt.Errorf("read post response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[publish] rejected: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
		return tweetmodel.PostReply{}, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	if !gjson.ValidBytes(raw) {
		return tweetmodel.PostReply{}, fmt.Errorf("post response is not valid JSON: %q", snippet(raw))
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return tweetmodel.PostReply{}, fmt.Errorf("post response is not a JSON object: %q", snippet(raw))
	}

	return tweetmodel.PostReply{
		Message:     SuccessMessage,
		RedirectURL: RedirectURL(p.cfg.UIBaseURL, Identifier(parsed)),
	}, nil
}

// Identifier picks the first truthy value of "id" then "tweet_id"; numbers keep their JSON text.
func Identifier(body gjson.Result) string {
	for _, field := range []string{"id", "tweet_id"} {
		if id := truthyText(body.Get(field)); id != "" {
			return id
		}
	}
	return ""
}

func truthyText(value gjson.Result) string {
	switch value.Type {
	case gjson.String:
		return value.Str
	case gjson.Number:
		if value.Num != 0 {
			return value.Raw
		}
	case gjson.True:
		return value.Raw
	}
	return ""
}

// RedirectURL points at the tweet page, or the UI root when no identifier came back.
func RedirectURL(uiBase, id string) string {
	if id == "" {
		return uiBase
	}
	return fmt.Sprintf("%s/tweet/%s", uiBase, id)
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		return text[:200]
	}
	return text
}
