package metric

import (
	"bytes"
	"context"
	"errors"

	"github.com/stellarlinkco/benchkit/internal/llm"
)

// Summarization scores the model output as a summary of the input text:
// coverage of the key points and absence of invented detail.
type Summarization struct {
	Client        llm.Provider
	Threshold     float64 // min passing score, default 0.7
	IncludeReason bool
}

func (Summarization) Name() string {
	return "summarization"
}

type summarizationOutput struct {
	Score         float64  `json:"score"`
	Reasoning     string   `json:"reasoning"`
	MissingPoints []string `json:"missing_points"`
	ExtraClaims   []string `json:"extra_claims"`
}

func (m *Summarization) Measure(ctx context.Context, tc *TestCase) (*Result, error) {
	if m == nil {
		return nil, errors.New("summarization: nil metric")
	}
	if tc == nil {
		return nil, errors.New("summarization: nil test case")
	}
	if err := requireField("summarization", "input", tc.Input); err != nil {
		return nil, err
	}
	if err := requireField("summarization", "actual output", tc.ActualOutput); err != nil {
		return nil, err
	}

	threshold := clampThreshold(m.Threshold, 0.7)

	var prompt bytes.Buffer
	prompt.WriteString("You are an expert summarization evaluator. Judge how well the summary captures the source text.\n\n")
	prompt.WriteString("## Source Text\n")
	prompt.WriteString(tc.Input)
	prompt.WriteString("\n\n## Summary\n")
	prompt.WriteString(tc.ActualOutput)
	prompt.WriteString("\n\n## Instructions\n")
	prompt.WriteString("Score summarization quality from 0.0 to 1.0.\n")
	prompt.WriteString("- 0.0: Misses the key points or invents content not in the source\n")
	prompt.WriteString("- 1.0: Covers all key points, adds nothing the source does not say\n\n")
	prompt.WriteString("Output ONLY valid JSON in this exact format:\n")
	prompt.WriteString(`{"score": <number 0.0-1.0>, "reasoning": "<brief explanation>", "missing_points": ["<point>", ...], "extra_claims": ["<claim>", ...]}`)

	raw, err := askJudge(ctx, m.Client, "summarization", prompt.String())
	if err != nil {
		return nil, err
	}

	var out summarizationOutput
	if err := llm.ParseJSON(raw, &out); err != nil {
		return invalidJudgeOutput("summarization", raw, err), nil
	}

	score := clamp01(out.Score)
	details := map[string]any{"threshold": threshold}
	if len(out.MissingPoints) > 0 {
		details["missing_points"] = out.MissingPoints
	}
	if len(out.ExtraClaims) > 0 {
		details["extra_claims"] = out.ExtraClaims
	}

	return &Result{
		Passed:  score >= threshold,
		Score:   score,
		Reason:  reasonText(out.Reasoning, m.IncludeReason),
		Details: details,
	}, nil
}
