package tweet

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/tweetsmith/backend/internal/model/tweet"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/publish"
	"github.com/zhouzirui/tweetsmith/backend/pkg/utils"
)

const (
	detailMissingConfig = "Missing Twitter clone configuration"
	detailRejected      = "Twitter clone rejected the post"
)

// Composer 生成推文并写入历史
type Composer interface {
	Compose(ctx context.Context, req tweet.Request) (tweet.Entry, error)
}

// HistoryStore 提供历史快照与实时订阅
type HistoryStore interface {
	List(ctx context.Context) []tweet.Entry
	Subscribe(buffer int) ([]tweet.Entry, <-chan tweet.Entry, func())
}

// Publisher 把推文转发到发布服务
type Publisher interface {
	Configured() bool
	Post(ctx context.Context, text string) (tweet.PostReply, error)
}

// Handler 推文相关的HTTP处理器
type Handler struct {
	composer  Composer
	history   HistoryStore
	publisher Publisher
	feed      *FeedHandler
}

// New 创建推文处理器
func New(composer Composer, history HistoryStore, publisher Publisher, allowedOrigin string) *Handler {
	return &Handler{
		composer:  composer,
		history:   history,
		publisher: publisher,
		feed:      NewFeedHandler(history, allowedOrigin),
	}
}

// RegisterRoutes 注册推文相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tweet", h.handleCompose)
	r.Get("/tweet/history", h.handleHistory)
	r.Get("/tweet/history/ws", h.feed.ServeHTTP)
	r.Post("/tweet/post", h.handlePost)
}

// handleCompose 生成一条不超过 280 字符的推文
func (h *Handler) handleCompose(w http.ResponseWriter, r *http.Request) {
	var payload tweet.Request
	if err := utils.DecodeJSON(r, &payload, "prompt"); err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	entry, err := h.composer.Compose(r.Context(), payload)
	if err != nil {
		log.Printf("[tweet] compose failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Tweet generation error: "+err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, tweet.Reply{Tweet: entry.Tweet})
}

// handleHistory 按生成顺序返回本进程内的全部推文
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, tweet.HistoryReply{History: h.history.List(r.Context())})
}

// handlePost 转发推文到发布服务。配置缺失时不解析请求体直接返回 400。
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	if !h.publisher.Configured() {
		utils.RespondError(w, http.StatusBadRequest, detailMissingConfig)
		return
	}

	var payload tweet.PostRequest
	if err := utils.DecodeJSON(r, &payload, "tweet"); err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	reply, err := h.publisher.Post(r.Context(), payload.Tweet)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, reply)
	case errors.Is(err, publish.ErrNotConfigured):
		utils.RespondError(w, http.StatusBadRequest, detailMissingConfig)
	case errors.Is(err, publish.ErrRejected):
		utils.RespondError(w, http.StatusUnprocessableEntity, detailRejected)
	default:
		log.Printf("[publish] post failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Posting error: "+err.Error())
	}
}
