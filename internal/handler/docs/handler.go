package docs

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/tweetsmith/backend/pkg/utils"
)

//go:embed openapi.json
var openAPISpec []byte

const docsPage = `<!DOCTYPE html>
<html>
<head>
  <title>tweetsmith relay docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>window.ui = SwaggerUIBundle({url: "/openapi.json", dom_id: "#swagger-ui"});</script>
</body>
</html>`

// Handler 提供文档页、OpenAPI 描述和健康检查
type Handler struct{}

// New 创建文档处理器
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes 注册文档相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Get("/docs", h.handleDocs)
	r.Get("/openapi.json", h.handleSpec)
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/docs", http.StatusFound)
}

func (h *Handler) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(docsPage))
}

func (h *Handler) handleSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openAPISpec)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
