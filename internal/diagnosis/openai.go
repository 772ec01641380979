package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudsleuth/cloudsleuth/internal/config"
	"github.com/cloudsleuth/cloudsleuth/internal/logging"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openAIRequestTimeout = 120 * time.Second
)

// openAIProvider talks to any OpenAI-compatible chat completions
// endpoint. The base URL is configurable so self-hosted gateways
// (vLLM, LiteLLM, Azure OpenAI) work without code changes.
type openAIProvider struct {
	client    *http.Client
	endpoint  string
	apiKey    string
	model     string
	maxTokens int
	logger    *logging.Logger
}

func newOpenAIProvider(apiKey, model string, maxTokens int, baseURL string) (*openAIProvider, error) {
	if apiKey == "" {
		return nil, config.NewConfigError(fmt.Sprintf(
			"openai API key missing: set %s or diagnosis.api_key", openAIKeyEnv))
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	return &openAIProvider{
		client:    &http.Client{Timeout: openAIRequestTimeout},
		endpoint:  strings.TrimSuffix(baseURL, "/") + "/chat/completions",
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		logger:    logging.GetLogger("diagnosis.openai"),
	}, nil
}

func (p *openAIProvider) Name() string  { return config.ProviderOpenAI }
func (p *openAIProvider) Model() string { return p.model }

// Request and response types for the chat completions API.

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *openAIProvider) Diagnose(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: p.maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Provider: p.Name(), Err: p.parseErrorResponse(resp.StatusCode, body)}
	}

	return p.parseResponse(body)
}

func (p *openAIProvider) parseResponse(body []byte) (string, error) {
	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &Error{Provider: p.Name(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &Error{Provider: p.Name(), Err: errors.New("response contained no choices")}
	}

	choice := chatResp.Choices[0]
	if choice.Message.Content == "" {
		return "", &Error{Provider: p.Name(), Err: errors.New("response contained no text")}
	}

	if choice.FinishReason == "length" {
		p.logger.Warn("diagnosis truncated at max_tokens=%d", p.maxTokens)
	}
	p.logger.Debug("usage: prompt_tokens=%d completion_tokens=%d",
		chatResp.Usage.PromptTokens, chatResp.Usage.CompletionTokens)

	return choice.Message.Content, nil
}

func (p *openAIProvider) parseErrorResponse(statusCode int, body []byte) error {
	var errResp chatErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return fmt.Errorf("API error (status %d): %s", statusCode, string(body))
	}
	return fmt.Errorf("API error (status %d, type: %s): %s",
		statusCode, errResp.Error.Type, errResp.Error.Message)
}
