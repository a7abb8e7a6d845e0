package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorBody 是所有失败响应的统一结构。
type ErrorBody struct {
	Detail string `json:"detail"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondJSON(w, status, ErrorBody{Detail: detail})
}
