package openai

import (
	"context"
	"fmt"
	"net/http"

	openailib "github.com/sashabaranov/go-openai"

	"github.com/caldera-ai/concierge/internal/provider"
)

// Client implements provider.Transcriber and provider.Vision against the
// OpenAI API (Whisper for audio, a vision-capable chat model for images).
type Client struct {
	api        *openailib.Client
	httpClient *http.Client
	chatModel  string
}

// Compile-time interface checks.
var (
	_ provider.Transcriber = (*Client)(nil) //nolint:gochecknoglobals // compile-time check
	_ provider.Vision      = (*Client)(nil) //nolint:gochecknoglobals // compile-time check
)

func New(apiKey, chatModel string) *Client {
	if chatModel == "" {
		chatModel = openailib.GPT4oMini
	}
	return &Client{
		api:        openailib.NewClient(apiKey),
		httpClient: http.DefaultClient,
		chatModel:  chatModel,
	}
}

// Transcribe downloads the recording and runs it through Whisper.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("openai.Client.Transcribe: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai.Client.Transcribe: fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai.Client.Transcribe: fetch audio: status %d", resp.StatusCode)
	}

	out, err := c.api.CreateTranscription(ctx, openailib.AudioRequest{
		Model:    openailib.Whisper1,
		Reader:   resp.Body,
		FilePath: "voice-message.ogg",
	})
	if err != nil {
		return "", fmt.Errorf("openai.Client.Transcribe: %w", err)
	}

	return out.Text, nil
}

// Analyze sends the image to a vision-capable chat model.
func (c *Client) Analyze(ctx context.Context, imageURL, prompt string) (string, error) {
	if prompt == "" {
		prompt = "Describe the contents of this image."
	}

	out, err := c.api.CreateChatCompletion(ctx, openailib.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openailib.ChatCompletionMessage{
			{
				Role: openailib.ChatMessageRoleUser,
				MultiContent: []openailib.ChatMessagePart{
					{Type: openailib.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openailib.ChatMessagePartTypeImageURL,
						ImageURL: &openailib.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai.Client.Analyze: %w", err)
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai.Client.Analyze: empty response")
	}

	return out.Choices[0].Message.Content, nil
}
