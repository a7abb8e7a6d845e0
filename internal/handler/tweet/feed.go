package tweet

import (
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/tweetsmith/backend/internal/model/tweet"
)

const (
	feedBuffer   = 16
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// FeedMessage 是历史推送的帧结构
type FeedMessage struct {
	Type    string        `json:"type"`
	History []tweet.Entry `json:"history,omitempty"`
	Entry   *tweet.Entry  `json:"entry,omitempty"`
}

// FeedHandler 通过 WebSocket 推送历史快照以及之后新生成的推文
type FeedHandler struct {
	history  HistoryStore
	upgrader websocket.Upgrader
}

// NewFeedHandler 创建历史推送处理器
func NewFeedHandler(history HistoryStore, allowedOrigin string) *FeedHandler {
	return &FeedHandler{
		history: history,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r, allowedOrigin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func originAllowed(r *http.Request, allowedOrigin string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == allowedOrigin {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return parsed.Host == r.Host
}

func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	snapshot, updates, cancel := h.history.Subscribe(feedBuffer)
	defer cancel()

	if err := h.write(conn, FeedMessage{Type: "snapshot", History: snapshot}); err != nil {
		log.Printf("[ws] snapshot write failed: %v", err)
		return
	}

	// 读循环只用于感知客户端断开
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case entry, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, FeedMessage{Type: "tweet", Entry: &entry}); err != nil {
				log.Printf("[ws] entry write failed: %v", err)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (h *FeedHandler) write(conn *websocket.Conn, msg FeedMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
