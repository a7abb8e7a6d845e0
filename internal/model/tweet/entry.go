package tweet

import "time"

// MaxLength caps generated and posted tweet text, counted in characters.
const MaxLength = 280

// DefaultTone applies when a request omits tone.
const DefaultTone = "neutral"

// Entry is one generated tweet kept in the in-process history.
type Entry struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Tone      string    `json:"tone"`
	Tweet     string    `json:"tweet"`
	CreatedAt time.Time `json:"createdAt"`
}

// Truncate cuts s to at most MaxLength runes.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxLength {
		return s
	}
	return string(runes[:MaxLength])
}
