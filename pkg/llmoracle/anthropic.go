package llmoracle

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicClient implements Client on top of Anthropic's Messages API.
type anthropicClient struct {
	messages sdk.MessageService
	model    string
}

// NewAnthropicClient constructs a Client backed by the Anthropic SDK,
// reading ANTHROPIC_API_KEY-style auth from apiKey directly rather than the
// environment, since pkg/config owns env var recognition (spec §9:
// "configuration... recognized options are enumerated in §6").
func NewAnthropicClient(apiKey, model string) (Client, error) {
	if apiKey == "" {
		return nil, errors.New("llmoracle: anthropic api key is required")
	}
	if model == "" {
		return nil, errors.New("llmoracle: model identifier is required")
	}
	sc := sdk.NewClient(option.WithAPIKey(apiKey))
	return &anthropicClient{messages: sc.Messages, model: model}, nil
}

func (c *anthropicClient) params(req Request) (sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return sdk.MessageNewParams{}, errors.New("llmoracle: at least one message is required")
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		return sdk.MessageNewParams{}, errors.New("llmoracle: max_tokens must be positive")
	}

	var system []sdk.TextBlockParam
	msgs := make([]sdk.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = append(system, sdk.TextBlockParam{Text: m.Content})
			continue
		}
		block := sdk.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			msgs = append(msgs, sdk.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, sdk.NewUserMessage(block))
		}
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	return params, nil
}

func (c *anthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	params, err := c.params(req)
	if err != nil {
		return "", err
	}
	msg, err := c.messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llmoracle: anthropic messages.new: %w", err)
	}
	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}

func (c *anthropicClient) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk)
	errs := make(chan error, 1)

	params, err := c.params(req)
	if err != nil {
		go func() {
			errs <- err
			close(errs)
			close(chunks)
		}()
		return chunks, errs
	}

	go func() {
		defer close(chunks)
		defer close(errs)

		stream := c.messages.NewStreaming(ctx, params)
		for stream.Next() {
			event := stream.Current()
			if delta, ok := event.AsAny().(sdk.ContentBlockDeltaEvent); ok {
				if text := delta.Delta.Text; text != "" {
					select {
					case chunks <- StreamChunk{Text: text}:
					case <-ctx.Done():
						errs <- ctx.Err()
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			errs <- fmt.Errorf("llmoracle: anthropic stream: %w", err)
			return
		}
		chunks <- StreamChunk{Done: true}
	}()

	return chunks, errs
}
