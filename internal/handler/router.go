package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/tweetsmith/backend/internal/handler/chat"
	"github.com/zhouzirui/tweetsmith/backend/internal/handler/docs"
	"github.com/zhouzirui/tweetsmith/backend/internal/handler/stream"
	"github.com/zhouzirui/tweetsmith/backend/internal/handler/tweet"
	middlewarePkg "github.com/zhouzirui/tweetsmith/backend/internal/middleware"
)

// Services 汇总路由需要的业务依赖
type Services struct {
	Chat      chat.Replier
	Composer  tweet.Composer
	History   tweet.HistoryStore
	Publisher tweet.Publisher
}

// NewRouter wires HTTP routes to core services.
func NewRouter(allowedOrigin string, svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigin))

	docs.New().RegisterRoutes(r)
	chat.New(svc.Chat).RegisterRoutes(r)
	tweet.New(svc.Composer, svc.History, svc.Publisher, allowedOrigin).RegisterRoutes(r)
	stream.New(svc.History).RegisterRoutes(r)

	return r
}
