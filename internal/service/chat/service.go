package chat

import (
	"context"
	"fmt"

	"github.com/zhouzirui/tweetsmith/backend/internal/service/eventlog"
)

// Replier produces an answer for a single user message.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// Recorder persists events; see eventlog.Logger.
type Recorder interface {
	Record(ctx context.Context, table string, record map[string]any) error
}

// Service relays one chat turn upstream and records the exchange.
type Service struct {
	replier Replier
	events  Recorder
}

// NewService wires the chat relay. events may be nil.
func NewService(replier Replier, events Recorder) *Service {
	return &Service{replier: replier, events: events}
}

// Reply forwards message and returns the trimmed answer.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	reply, err := s.replier.Reply(ctx, message)
	if err != nil {
		return "", err
	}

	if s.events != nil {
		record := map[string]any{"user_msg": message, "bot_reply": reply}
		if err := s.events.Record(ctx, eventlog.TableChats, record); err != nil {
			return "", fmt.Errorf("failed to record chat: %w", err)
		}
	}
	return reply, nil
}
