package metric

import (
	"bytes"
	"context"
	"errors"

	"github.com/stellarlinkco/benchkit/internal/llm"
)

// Hallucination detects claims in the model output that contradict the
// ground-truth context of the test case. Score is the judged consistency, so
// higher means fewer hallucinations.
type Hallucination struct {
	Client        llm.Provider
	Threshold     float64 // min passing consistency, default 0.9
	IncludeReason bool
}

func (Hallucination) Name() string {
	return "hallucination"
}

type hallucinationOutput struct {
	Score          float64  `json:"score"`
	Reasoning      string   `json:"reasoning"`
	Hallucinations []string `json:"hallucinations"`
	Contradictions []string `json:"contradictions"`
}

func (m *Hallucination) Measure(ctx context.Context, tc *TestCase) (*Result, error) {
	if m == nil {
		return nil, errors.New("hallucination: nil metric")
	}
	if tc == nil {
		return nil, errors.New("hallucination: nil test case")
	}
	if err := requireField("hallucination", "actual output", tc.ActualOutput); err != nil {
		return nil, err
	}
	if len(tc.Context) == 0 {
		return nil, errors.New("hallucination: missing context")
	}

	threshold := clampThreshold(m.Threshold, 0.9)

	var prompt bytes.Buffer
	prompt.WriteString("You are an expert fact-checker. Detect hallucinations in the AI response relative to the ground-truth context.\n\n")
	prompt.WriteString("## Ground Truth\n")
	prompt.WriteString(joinBlocks(tc.Context))
	prompt.WriteString("\n\n## AI Response\n")
	prompt.WriteString(tc.ActualOutput)
	prompt.WriteString("\n\n## Instructions\n")
	prompt.WriteString("Score factual consistency from 0.0 to 1.0.\n")
	prompt.WriteString("- 0.0: Many hallucinations or contradictions\n")
	prompt.WriteString("- 1.0: Fully consistent, no unsupported claims\n\n")
	prompt.WriteString("Output ONLY valid JSON in this exact format:\n")
	prompt.WriteString(`{"score": <number 0.0-1.0>, "reasoning": "<brief explanation>", "hallucinations": ["<unsupported claim>", ...], "contradictions": ["<contradiction>", ...]}`)

	raw, err := askJudge(ctx, m.Client, "hallucination", prompt.String())
	if err != nil {
		return nil, err
	}

	var out hallucinationOutput
	if err := llm.ParseJSON(raw, &out); err != nil {
		return invalidJudgeOutput("hallucination", raw, err), nil
	}

	score := clamp01(out.Score)
	details := map[string]any{"threshold": threshold}
	if len(out.Hallucinations) > 0 {
		details["hallucinations"] = out.Hallucinations
	}
	if len(out.Contradictions) > 0 {
		details["contradictions"] = out.Contradictions
	}

	return &Result{
		Passed:  score >= threshold,
		Score:   score,
		Reason:  reasonText(out.Reasoning, m.IncludeReason),
		Details: details,
	}, nil
}
