package ai

import (
	"fmt"
	"strings"
)

const (
	chatSystemPrompt  = "You are a helpful assistant."
	tweetSystemPrompt = "You are a tweet generator bot."

	// tweetUserTemplate is rendered by eino's FString formatter.
	tweetUserTemplate = "Write a short, {tone} tweet about: {topic}"

	chatTitle  = "Chatbot"
	tweetTitle = "TweetBot"
)

// TweetInstruction renders the user turn sent for tweet generation.
func TweetInstruction(topic, tone string) string {
	return fmt.Sprintf("Write a short, %s tweet about: %s", strings.ToLower(tone), topic)
}
