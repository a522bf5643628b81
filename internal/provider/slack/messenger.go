package slack

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/caldera-ai/concierge/internal/provider"
)

// SlackAPI abstracts the subset of the Slack client used by Messenger.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Messenger implements provider.Messenger for Slack.
type Messenger struct {
	api SlackAPI
}

// Compile-time interface check.
var _ provider.Messenger = (*Messenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewMessenger creates a Messenger with the given API client.
func NewMessenger(api SlackAPI) *Messenger {
	return &Messenger{api: api}
}

// NewFromToken creates a Messenger backed by a real Slack client.
func NewFromToken(botToken string) *Messenger {
	return NewMessenger(slacklib.New(botToken))
}

// SendMessage posts a text message to a Slack channel and returns the
// message timestamp as its ID.
func (m *Messenger) SendMessage(_ context.Context, channel, text string) (string, error) {
	_, ts, err := m.api.PostMessage(channel, slacklib.MsgOptionText(text, false))
	if err != nil {
		return "", fmt.Errorf("slack.Messenger.SendMessage: %w", err)
	}

	return ts, nil
}
