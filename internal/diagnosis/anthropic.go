package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/logging"
)

type anthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
	logger    *logging.Logger
}

// newAnthropicProvider builds a Messages API client. Extra request
// options are for tests (custom base URL).
func newAnthropicProvider(apiKey, model string, maxTokens int, opts ...option.RequestOption) (*anthropicProvider, error) {
	if apiKey == "" {
		return nil, config.NewConfigError(fmt.Sprintf(
			"anthropic API key missing: set %s or diagnosis.api_key", anthropicKeyEnv))
	}

	// One attempt per run. A failed diagnosis is reported, not retried,
	// and the assembled prompt stays printable.
	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &anthropicProvider{
		client:    anthropic.NewClient(clientOpts...),
		model:     model,
		maxTokens: maxTokens,
		logger:    logging.GetLogger("diagnosis.anthropic"),
	}, nil
}

func (p *anthropicProvider) Name() string  { return config.ProviderAnthropic }
func (p *anthropicProvider) Model() string { return p.model }

func (p *anthropicProvider) Diagnose(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: err}
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &Error{Provider: p.Name(), Err: errors.New("response contained no text")}
	}

	if resp.StopReason == anthropic.StopReasonMaxTokens {
		p.logger.Warn("diagnosis truncated at max_tokens=%d", p.maxTokens)
	}
	p.logger.Debug("usage: input_tokens=%d output_tokens=%d",
		resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return b.String(), nil
}
