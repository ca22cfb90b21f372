package llm

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// openAIBackend is the default fast/cheap chat-model backend.
type openAIBackend struct {
	name   string
	client *openai.Client
	model  string
	max    int
	rates  Rates
}

func newOpenAI(cfg Config) Backend {
	model := cfg.OpenAIModel
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIBackend{
		name:   "openai",
		client: openai.NewClient(cfg.OpenAIKey),
		model:  model,
		max:    cfg.MaxTokens,
		rates:  cfg.Rates,
	}
}

// newAzure builds the enterprise-hosted variant of the same model family.
// Only auth and endpoint differ; the deployment name stands in for the model.
func newAzure(cfg Config) Backend {
	azCfg := openai.DefaultAzureConfig(cfg.AzureKey, cfg.AzureEndpoint)
	if cfg.AzureDeployment != "" {
		deployment := cfg.AzureDeployment
		azCfg.AzureModelMapperFunc = func(string) string { return deployment }
	}
	model := cfg.OpenAIModel
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIBackend{
		name:   "azure",
		client: openai.NewClientWithConfig(azCfg),
		model:  model,
		max:    cfg.MaxTokens,
		rates:  cfg.Rates,
	}
}

func (b *openAIBackend) Name() string { return b.name }

func (b *openAIBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	ccReq := openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		ccReq.MaxTokens = req.MaxTokens
	} else if b.max > 0 {
		ccReq.MaxTokens = b.max
	}
	if req.Temperature != nil {
		ccReq.Temperature = float32(*req.Temperature)
	}

	resp, err := b.client.CreateChatCompletion(ctx, ccReq)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: %s chat completion", b.name)
	}
	if len(resp.Choices) == 0 {
		return nil, eris.Errorf("llm: %s returned no choices", b.name)
	}

	return &Response{
		Text:    resp.Choices[0].Message.Content,
		Model:   b.model,
		CostUSD: b.rates.Cost(b.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}, nil
}
