package chat

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/tweetsmith/backend/internal/model/chat"
	"github.com/zhouzirui/tweetsmith/backend/pkg/utils"
)

// Replier 抽象聊天业务，便于测试与替换实现
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc Replier
}

// New 创建聊天处理器
func New(chatSvc Replier) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// handleChat 转发一条消息到上游模型
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request
	if err := utils.DecodeJSON(r, &payload, "message"); err != nil {
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	reply, err := h.chatSvc.Reply(r.Context(), payload.Message)
	if err != nil {
		log.Printf("[chat] reply failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Chat error: "+err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, chat.Reply{Reply: reply})
}
