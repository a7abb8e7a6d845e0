package tweet

import (
	"context"
	"fmt"
	"log"

	tweetmodel "github.com/zhouzirui/tweetsmith/backend/internal/model/tweet"
	"github.com/zhouzirui/tweetsmith/backend/internal/service/eventlog"
)

// Generator writes tweet text for a topic and tone.
type Generator interface {
	Tweet(ctx context.Context, topic, tone string) (string, error)
}

// History stores composed tweets.
type History interface {
	Append(ctx context.Context, entry tweetmodel.Entry) tweetmodel.Entry
}

// Recorder persists events; see eventlog.Logger.
type Recorder interface {
	Record(ctx context.Context, table string, record map[string]any) error
}

// Composer generates a tweet, caps it at tweetmodel.MaxLength, and keeps it in history.
type Composer struct {
	generator Generator
	history   History
	events    Recorder
}

// NewComposer wires the composer. events may be nil.
func NewComposer(generator Generator, history History, events Recorder) *Composer {
	return &Composer{generator: generator, history: history, events: events}
}

// Compose runs the full generation flow. The entry is appended to history before the
// event is recorded, so a strict event-log failure still leaves it in history.
func (c *Composer) Compose(ctx context.Context, req tweetmodel.Request) (tweetmodel.Entry, error) {
	text, err := c.generator.Tweet(ctx, req.Prompt, req.Tone)
	if err != nil {
		return tweetmodel.Entry{}, err
	}
	text = tweetmodel.Truncate(text)

	entry := c.history.Append(ctx, tweetmodel.Entry{
		Prompt: req.Prompt,
		Tone:   req.Tone,
		Tweet:  text,
	})
	log.Printf("[tweet] composed id=%s tone=%q length=%d", entry.ID, entry.Tone, len([]rune(entry.Tweet)))

	if c.events != nil {
		record := map[string]any{
			"prompt": req.Prompt,
			"tone":   req.Tone,
			"tweet":  text,
		}
		if err := c.events.Record(ctx, eventlog.TableTweets, record); err != nil {
			return entry, fmt.Errorf("failed to record tweet: %w", err)
		}
	}
	return entry, nil
}
