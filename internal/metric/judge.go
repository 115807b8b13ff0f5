package metric

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stellarlinkco/benchkit/internal/llm"
)

const judgeMaxTokens = 512

// askJudge sends a scoring prompt to the judge model and returns the raw
// text reply.
func askJudge(ctx context.Context, client llm.Provider, name, prompt string) (string, error) {
	if client == nil {
		return "", fmt.Errorf("%s: nil judge provider", name)
	}
	if ctx == nil {
		return "", fmt.Errorf("%s: nil context", name)
	}

	resp, err := client.Complete(ctx, &llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:   judgeMaxTokens,
		Temperature: llm.Temp(0),
	})
	if err != nil {
		return "", fmt.Errorf("%s: judge: %w", name, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%s: nil judge response", name)
	}
	return strings.TrimSpace(resp.Text), nil
}

// invalidJudgeOutput is the zero-score failed result used when the judge did
// not return parseable JSON. Not an error: the judge is an opaque
// collaborator and garbage output is a scoring outcome, not a system fault.
func invalidJudgeOutput(name, raw string, err error) *Result {
	return &Result{
		Passed: false,
		Score:  0.0,
		Reason: "invalid " + name + " output",
		Details: map[string]any{
			"error":  err.Error(),
			"output": raw,
		},
	}
}

func requireField(name, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(name + ": missing " + field)
	}
	return nil
}

// joinBlocks renders context passages as a numbered list for judge prompts.
func joinBlocks(blocks []string) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("] ")
		sb.WriteString(strings.TrimSpace(b))
	}
	return sb.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampThreshold(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	if v > 1 {
		return 1
	}
	return v
}

func reasonText(reasoning string, includeReason bool) string {
	if !includeReason {
		return ""
	}
	reasoning = strings.TrimSpace(reasoning)
	if reasoning == "" {
		return "no reasoning provided"
	}
	return reasoning
}
