package tweet

import "encoding/json"

// Request is the body of POST /tweet.
type Request struct {
	Prompt string `json:"prompt"`
	Tone   string `json:"tone"`
}

// UnmarshalJSON applies DefaultTone only when the tone field is absent.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	decoded := plain{Tone: DefaultTone}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Request(decoded)
	return nil
}

// Reply is returned by POST /tweet.
type Reply struct {
	Tweet string `json:"tweet"`
}

// HistoryReply is returned by GET /tweet/history.
type HistoryReply struct {
	History []Entry `json:"history"`
}

// PostRequest is the body of POST /tweet/post.
type PostRequest struct {
	Tweet string `json:"tweet"`
}

// PostReply is returned after the posting service accepted a tweet.
type PostReply struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url"`
}
