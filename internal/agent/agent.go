// Package agent defines the conversational interface Stage 1/2/3
// orchestrators drive, plus a go-openai-backed implementation.
package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Metadata carries per-call bookkeeping (token usage, fingerprint) that
// stage orchestrators log but never branch on.
type Metadata map[string]any

// Image is a captioned frame image sent alongside a prompt.
type Image struct {
	Caption string
	Data    image.Image
}

// Agent is the conversational surface every stage calls through. Reset
// clears accumulated history between solving sessions (and, on Stage 3,
// once per top-level retry per spec — see internal/stages).
type Agent interface {
	Call(ctx context.Context, prompt string, images []Image) (string, Metadata, error)
	Reset()
}

const defaultModel = "gpt-4o-2024-11-20"
const defaultTimeout = 30 * time.Second

// GPTAgent drives OpenAI chat completions, accumulating a running history
// across calls until Reset.
type GPTAgent struct {
	client  *openai.Client
	model   string
	history []openai.ChatCompletionMessage
}

// NewGPTAgent constructs a GPTAgent. apiKey must be non-empty.
func NewGPTAgent(apiKey string, model string) (*GPTAgent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY (provide a non-empty string)")
	}
	if model == "" {
		model = defaultModel
	}
	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Timeout: defaultTimeout}
	return &GPTAgent{client: openai.NewClientWithConfig(config), model: model}, nil
}

func (a *GPTAgent) Reset() {
	a.history = nil
}

// Call appends prompt plus any inline JPEG-encoded images to the running
// history and issues one chat completion.
func (a *GPTAgent) Call(ctx context.Context, prompt string, images []Image) (string, Metadata, error) {
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}

	for i, img := range images {
		caption := img.Caption
		if caption == "" {
			caption = fmt.Sprintf("Image %d", i)
		}
		encoded, err := encodeJPEG(img.Data)
		if err != nil {
			return "", nil, fmt.Errorf("encode image %d: %w", i, err)
		}
		parts = append(parts,
			openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: caption},
			openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: "data:image/jpeg;base64," + encoded,
				},
			},
		)
	}

	a.history = append(a.history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts})

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    a.history,
		MaxTokens:   1024,
		Temperature: 0,
		TopP:        1,
	})
	if err != nil {
		return "", nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	meta := Metadata{
		"fingerprint":       resp.SystemFingerprint,
		"total_tokens":      resp.Usage.TotalTokens,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}

	a.history = append(a.history, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content})

	return content, meta, nil
}

func encodeJPEG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
