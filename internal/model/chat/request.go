package chat

// Request is the body of POST /chat.
type Request struct {
	Message string `json:"message"`
}

// Reply carries the trimmed upstream answer.
type Reply struct {
	Reply string `json:"reply"`
}
