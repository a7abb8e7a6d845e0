package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

const maxBodyBytes = 1 << 20

// DecodeJSON 读取请求体并解码到 dst，required 中的字段必须存在且为字符串。
func DecodeJSON(r *http.Request, dst any, required ...string) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if !gjson.ValidBytes(raw) {
		return fmt.Errorf("request body is not valid JSON")
	}

	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		return fmt.Errorf("request body must be a JSON object")
	}
	for _, field := range required {
		value := body.Get(field)
		if !value.Exists() {
			return fmt.Errorf("field %q is required", field)
		}
		if value.Type != gjson.String {
			return fmt.Errorf("field %q must be a string", field)
		}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
