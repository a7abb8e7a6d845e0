package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RESTSink posts records to a PostgREST-style endpoint (Supabase) at {baseURL}/rest/v1/{table}.
type RESTSink struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewRESTSink creates a sink authenticated with key as both apikey and bearer token.
func NewRESTSink(baseURL, key string, client *http.Client) *RESTSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &RESTSink{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  client,
	}
}

func (s *RESTSink) Name() string { return "rest" }

// Write sends the record wrapped in a one-element array.
func (s *RESTSink) Write(ctx context.Context, table string, record map[string]any) error {
	body, err := json.Marshal([]map[string]any{record})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	endpoint := s.baseURL + "/rest/v1/" + url.PathEscape(table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: status %d: %s", table, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
