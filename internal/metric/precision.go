package metric

import (
	"bytes"
	"context"
	"errors"

	"github.com/stellarlinkco/benchkit/internal/llm"
)

// ContextualPrecision scores whether the relevant passages of the retrieval
// context are ranked above the irrelevant ones for answering the input. The
// expected output, when present, tells the judge what a correct answer needs.
type ContextualPrecision struct {
	Client        llm.Provider
	Threshold     float64 // min passing score, default 0.7
	IncludeReason bool
}

func (ContextualPrecision) Name() string {
	return "contextual_precision"
}

type precisionOutput struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
	Verdicts  []struct {
		Node     int    `json:"node"`
		Relevant bool   `json:"relevant"`
		Reason   string `json:"reason"`
	} `json:"verdicts"`
}

func (m *ContextualPrecision) Measure(ctx context.Context, tc *TestCase) (*Result, error) {
	if m == nil {
		return nil, errors.New("contextual_precision: nil metric")
	}
	if tc == nil {
		return nil, errors.New("contextual_precision: nil test case")
	}
	if err := requireField("contextual_precision", "input", tc.Input); err != nil {
		return nil, err
	}
	if len(tc.RetrievalContext) == 0 {
		return nil, errors.New("contextual_precision: missing retrieval context")
	}

	threshold := clampThreshold(m.Threshold, 0.7)

	var prompt bytes.Buffer
	prompt.WriteString("You are an expert retrieval evaluator. The numbered passages below were retrieved, in ranked order, to answer the question. Judge each passage's relevance and score how well relevant passages are ranked ahead of irrelevant ones.\n\n")
	prompt.WriteString("## Question\n")
	prompt.WriteString(tc.Input)
	if tc.ExpectedOutput != "" {
		prompt.WriteString("\n\n## Expected Answer\n")
		prompt.WriteString(tc.ExpectedOutput)
	}
	prompt.WriteString("\n\n## Retrieved Passages (ranked)\n")
	prompt.WriteString(joinBlocks(tc.RetrievalContext))
	prompt.WriteString("\n\n## Instructions\n")
	prompt.WriteString("Score contextual precision from 0.0 to 1.0.\n")
	prompt.WriteString("- 0.0: Irrelevant passages dominate the top ranks\n")
	prompt.WriteString("- 1.0: Every relevant passage outranks every irrelevant one\n\n")
	prompt.WriteString("Output ONLY valid JSON in this exact format:\n")
	prompt.WriteString(`{"score": <number 0.0-1.0>, "reasoning": "<brief explanation>", "verdicts": [{"node": <passage number>, "relevant": <bool>, "reason": "<why>"}, ...]}`)

	raw, err := askJudge(ctx, m.Client, "contextual_precision", prompt.String())
	if err != nil {
		return nil, err
	}

	var out precisionOutput
	if err := llm.ParseJSON(raw, &out); err != nil {
		return invalidJudgeOutput("contextual_precision", raw, err), nil
	}

	score := clamp01(out.Score)
	details := map[string]any{"threshold": threshold}
	if len(out.Verdicts) > 0 {
		details["verdicts"] = out.Verdicts
	}

	return &Result{
		Passed:  score >= threshold,
		Score:   score,
		Reason:  reasonText(out.Reasoning, m.IncludeReason),
		Details: details,
	}, nil
}
