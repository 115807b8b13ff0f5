package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultRetryMax       = 3
	maxRetryMax           = 5
	retryBaseDelay        = time.Second
)

// AnthropicProvider calls the Anthropic messages API. Credentials are passed
// in explicitly; the provider never reads the process environment.
type AnthropicProvider struct {
	apiKey    string
	baseURL   string
	model     string
	retryMax  int
	retryBase time.Duration
}

func NewAnthropicProvider(apiKey, baseURL, model string, retryMax int) *AnthropicProvider {
	m := strings.TrimSpace(model)
	if m == "" {
		m = defaultAnthropicModel
	}
	return &AnthropicProvider{
		apiKey:    strings.TrimSpace(apiKey),
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:     m,
		retryMax:  clampRetryMax(retryMax),
		retryBase: retryBaseDelay,
	}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p == nil {
		return nil, errors.New("llm: anthropic: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("llm: anthropic: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: anthropic: nil request")
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("llm: anthropic: %w", ErrMissingAPIKey)
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  toSDKMessages(req.Messages),
	}
	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system, Type: "text"}}
	}
	if req.Temperature != nil {
		params.Temperature = param.NewOpt(*req.Temperature)
	}

	sdk := p.newSDKClient()
	retryMax := clampRetryMax(p.retryMax)
	retryBase := p.retryBase
	if retryBase <= 0 {
		retryBase = retryBaseDelay
	}

	start := time.Now()
	for attempt := 0; ; attempt++ {
		msg, err := sdk.Messages.New(ctx, params)
		if err != nil {
			err = normalizeAnthropicError(err)
			if !shouldRetry(err) || attempt >= retryMax {
				return nil, err
			}
			if err := sleepWithContext(ctx, retryBackoff(retryBase, attempt)); err != nil {
				return nil, err
			}
			continue
		}

		out := fromSDKMessage(msg)
		if out != nil {
			out.LatencyMs = time.Since(start).Milliseconds()
		}
		return out, nil
	}
}

func (p *AnthropicProvider) newSDKClient() *anthropic.Client {
	opts := make([]option.RequestOption, 0, 3)
	opts = append(opts, option.WithAPIKey(p.apiKey))
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(p.baseURL, "/v1")))
	}
	opts = append(opts, option.WithMaxRetries(0))

	client := anthropic.NewClient(opts...)
	return &client
}

func toSDKMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if strings.EqualFold(strings.TrimSpace(m.Role), "assistant") {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}
	return out
}

func fromSDKMessage(msg *anthropic.Message) *Response {
	if msg == nil {
		return nil
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return &Response{
		Text:       sb.String(),
		Model:      string(msg.Model),
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}

// APIError represents a non-2xx response from the Anthropic API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "llm: anthropic: api error <nil>"
	}
	msg := strings.TrimSpace(e.Message)
	switch {
	case e.Type != "" && msg != "":
		return fmt.Sprintf("llm: anthropic: api error (%d): %s: %s", e.StatusCode, e.Type, msg)
	case msg != "":
		return fmt.Sprintf("llm: anthropic: api error (%d): %s", e.StatusCode, msg)
	default:
		return fmt.Sprintf("llm: anthropic: api error (%d)", e.StatusCode)
	}
}

type anthropicErrorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func normalizeAnthropicError(err error) error {
	if err == nil {
		return nil
	}

	var sdkErr *anthropic.Error
	if !errors.As(err, &sdkErr) {
		return err
	}

	apiErr := &APIError{StatusCode: sdkErr.StatusCode}
	if raw := strings.TrimSpace(sdkErr.RawJSON()); raw != "" {
		var env anthropicErrorEnvelope
		if json.Unmarshal([]byte(raw), &env) == nil {
			apiErr.Type = env.Error.Type
			apiErr.Message = env.Error.Message
		}
	}
	return apiErr
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			(apiErr.StatusCode >= 500 && apiErr.StatusCode <= 599)
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func clampRetryMax(maxRetries int) int {
	if maxRetries < 0 {
		return defaultRetryMax
	}
	if maxRetries > maxRetryMax {
		return maxRetryMax
	}
	return maxRetries
}

func retryBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 || attempt < 0 {
		return 0
	}
	return base * time.Duration(1<<attempt)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
