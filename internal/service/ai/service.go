package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/tweetsmith/backend/internal/service/ai/openrouter"
)

// Service runs the two fixed prompt chains (free chat and tweet generation) over one chat model.
type Service struct {
	chatChain  compose.Runnable[map[string]any, *schema.Message]
	tweetChain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the chat and tweet chains around chatModel.
func NewService(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	chatChain, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(chatSystemPrompt),
		schema.UserMessage("{query}"),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	tweetChain, err := compileChain(ctx, chatModel, prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(tweetSystemPrompt),
		schema.UserMessage(tweetUserTemplate),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to compile tweet chain: %w", err)
	}

	return &Service{chatChain: chatChain, tweetChain: tweetChain}, nil
}

func compileChain(ctx context.Context, chatModel model.BaseChatModel, template prompt.ChatTemplate) (compose.Runnable[map[string]any, *schema.Message], error) {
	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)
	return chain.Compile(ctx)
}

// Reply answers a free-form chat message and returns the trimmed first choice.
func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	response, err := s.chatChain.Invoke(ctx, map[string]any{"query": message},
		compose.WithChatModelOption(openrouter.WithTitle(chatTitle)))
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	reply := strings.TrimSpace(response.Content)
	log.Printf("[ai] chat reply generated, length=%d", len(reply))
	return reply, nil
}

// Tweet generates tweet text about topic in the given tone. The result is trimmed but not truncated.
func (s *Service) Tweet(ctx context.Context, topic, tone string) (string, error) {
	input := map[string]any{
		"tone":  strings.ToLower(tone),
		"topic": topic,
	}

	response, err := s.tweetChain.Invoke(ctx, input,
		compose.WithChatModelOption(openrouter.WithTitle(tweetTitle)))
	if err != nil {
		return "", fmt.Errorf("failed to run tweet chain: %w", err)
	}

	return strings.TrimSpace(response.Content), nil
}
