package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/tweetsmith/backend/internal/model/tweet"
	"github.com/zhouzirui/tweetsmith/backend/pkg/utils"
)

const (
	subscriberBuffer  = 16
	keepAliveInterval = 30 * time.Second
)

// Subscriber 提供历史快照与后续推文
type Subscriber interface {
	Subscribe(buffer int) ([]tweet.Entry, <-chan tweet.Entry, func())
}

// Handler manages the tweet history feed via Server-Sent Events
type Handler struct {
	history Subscriber
}

// New creates a new stream handler
func New(history Subscriber) *Handler {
	return &Handler{history: history}
}

// RegisterRoutes 注册 SSE 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tweet/history/stream", h.handleStream)
}

// StreamResponse represents one SSE frame
type StreamResponse struct {
	Event   string        `json:"event"`
	History []tweet.Entry `json:"history,omitempty"`
	Entry   *tweet.Entry  `json:"entry,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	snapshot, updates, cancel := h.history.Subscribe(subscriberBuffer)
	defer cancel()

	if err := utils.SendSSEChunk(w, flusher, StreamResponse{Event: "snapshot", History: snapshot}); err != nil {
		log.Printf("[stream] snapshot write failed: %v", err)
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, ok := <-updates:
			if !ok {
				return
			}
			if err := utils.SendSSEChunk(w, flusher, StreamResponse{Event: "tweet", Entry: &entry}); err != nil {
				log.Printf("[stream] entry write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
