package llm

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// anthropicBackend is the alternate-vendor chat backend.
type anthropicBackend struct {
	client sdk.Client
	model  string
	max    int
	rates  Rates
}

func newAnthropic(cfg Config) Backend {
	model := cfg.AnthropicModel
	if model == "" {
		model = defaultAnthropicModel
	}
	return &anthropicBackend{
		client: sdk.NewClient(option.WithAPIKey(cfg.AnthropicKey)),
		model:  model,
		max:    cfg.MaxTokens,
		rates:  cfg.Rates,
	}
}

func (b *anthropicBackend) Name() string { return "anthropic" }

func (b *anthropicBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = b.max
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(b.model),
		MaxTokens: int64(maxTokens),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "llm: anthropic create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	return &Response{
		Text:    text,
		Model:   b.model,
		CostUSD: b.rates.Cost(b.model, int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)),
	}, nil
}
