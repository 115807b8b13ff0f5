package metric

import (
	"bytes"
	"context"
	"errors"

	"github.com/stellarlinkco/benchkit/internal/llm"
)

// Faithfulness checks whether the model output is strictly grounded in the
// retrieval context of the test case.
type Faithfulness struct {
	Client        llm.Provider
	Threshold     float64 // min passing score, default 0.8
	IncludeReason bool
}

func (Faithfulness) Name() string {
	return "faithfulness"
}

type faithfulnessOutput struct {
	Score             float64  `json:"score"`
	Reasoning         string   `json:"reasoning"`
	UnsupportedClaims []string `json:"unsupported_claims"`
}

func (m *Faithfulness) Measure(ctx context.Context, tc *TestCase) (*Result, error) {
	if m == nil {
		return nil, errors.New("faithfulness: nil metric")
	}
	if tc == nil {
		return nil, errors.New("faithfulness: nil test case")
	}
	if err := requireField("faithfulness", "actual output", tc.ActualOutput); err != nil {
		return nil, err
	}
	if len(tc.RetrievalContext) == 0 {
		return nil, errors.New("faithfulness: missing retrieval context")
	}

	threshold := clampThreshold(m.Threshold, 0.8)

	var prompt bytes.Buffer
	prompt.WriteString("You are an expert RAG evaluator. Determine whether the AI response is strictly grounded in the provided retrieval context.\n\n")
	prompt.WriteString("## Retrieval Context\n")
	prompt.WriteString(joinBlocks(tc.RetrievalContext))
	prompt.WriteString("\n\n## AI Response\n")
	prompt.WriteString(tc.ActualOutput)
	prompt.WriteString("\n\n## Instructions\n")
	prompt.WriteString("Score faithfulness from 0.0 to 1.0.\n")
	prompt.WriteString("- 0.0: Response is mostly unsupported / hallucinatory\n")
	prompt.WriteString("- 1.0: Every factual claim is supported by the context; no new facts are introduced\n\n")
	prompt.WriteString("Output ONLY valid JSON in this exact format:\n")
	prompt.WriteString(`{"score": <number 0.0-1.0>, "reasoning": "<brief explanation>", "unsupported_claims": ["<claim>", ...]}`)

	raw, err := askJudge(ctx, m.Client, "faithfulness", prompt.String())
	if err != nil {
		return nil, err
	}

	var out faithfulnessOutput
	if err := llm.ParseJSON(raw, &out); err != nil {
		return invalidJudgeOutput("faithfulness", raw, err), nil
	}

	score := clamp01(out.Score)
	details := map[string]any{"threshold": threshold}
	if len(out.UnsupportedClaims) > 0 {
		details["unsupported_claims"] = out.UnsupportedClaims
	}

	return &Result{
		Passed:  score >= threshold,
		Score:   score,
		Reason:  reasonText(out.Reasoning, m.IncludeReason),
		Details: details,
	}, nil
}
