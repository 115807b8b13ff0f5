package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIProvider calls the OpenAI chat-completions API or any compatible
// local server reachable through a custom base URL. Local servers do not
// require an API key.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	retryMax  int
	retryBase time.Duration
}

func NewOpenAIProvider(apiKey, baseURL, model string, retryMax int) *OpenAIProvider {
	apiKey = strings.TrimSpace(apiKey)
	cfg := openai.DefaultConfig(apiKey)
	local := false
	if v := strings.TrimSpace(baseURL); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
		local = !strings.Contains(cfg.BaseURL, "api.openai.com")
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = defaultOpenAIModel
	}

	p := &OpenAIProvider{
		model:     m,
		retryMax:  clampRetryMax(retryMax),
		retryBase: retryBaseDelay,
	}
	if apiKey != "" || local {
		p.client = openai.NewClientWithConfig(cfg)
	}
	return p
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p == nil {
		return nil, errors.New("llm: openai: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("llm: openai: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: openai: nil request")
	}
	if p.client == nil {
		return nil, fmt.Errorf("llm: openai: %w", ErrMissingAPIKey)
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    normalizeOpenAIRole(m.Role),
			Content: m.Content,
		})
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}

	r := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  msgs,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		if t == 0 {
			// omitempty drops a literal zero and the API default is 1.
			t = math.SmallestNonzeroFloat32
		}
		r.Temperature = t
	}

	retryBase := p.retryBase
	if retryBase <= 0 {
		retryBase = retryBaseDelay
	}

	start := time.Now()
	for attempt := 0; ; attempt++ {
		resp, err := p.client.CreateChatCompletion(ctx, r)
		if err != nil {
			if !shouldRetryOpenAI(err) || attempt >= p.retryMax {
				return nil, fmt.Errorf("llm: openai: %w", err)
			}
			if err := sleepWithContext(ctx, retryBackoff(retryBase, attempt)); err != nil {
				return nil, err
			}
			continue
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("llm: openai: empty choices")
		}

		choice := resp.Choices[0]
		return &Response{
			Text:       choice.Message.Content,
			Model:      resp.Model,
			StopReason: string(choice.FinishReason),
			Usage: Usage{
				InputTokens:  resp.Usage.PromptTokens,
				OutputTokens: resp.Usage.CompletionTokens,
			},
			LatencyMs: time.Since(start).Milliseconds(),
		}, nil
	}
}

func shouldRetryOpenAI(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			(apiErr.HTTPStatusCode >= 500 && apiErr.HTTPStatusCode <= 599)
	}
	return shouldRetry(err)
}

func normalizeOpenAIRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	switch role {
	case openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant:
		return role
	default:
		return openai.ChatMessageRoleUser
	}
}
