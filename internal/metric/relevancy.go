package metric

import (
	"bytes"
	"context"
	"errors"

	"github.com/stellarlinkco/benchkit/internal/llm"
)

// AnswerRelevancy checks whether the model output directly addresses the
// input question.
type AnswerRelevancy struct {
	Client        llm.Provider
	Threshold     float64 // min passing score, default 0.8
	IncludeReason bool
}

func (AnswerRelevancy) Name() string {
	return "answer_relevancy"
}

type relevancyOutput struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

func (m *AnswerRelevancy) Measure(ctx context.Context, tc *TestCase) (*Result, error) {
	if m == nil {
		return nil, errors.New("answer_relevancy: nil metric")
	}
	if tc == nil {
		return nil, errors.New("answer_relevancy: nil test case")
	}
	if err := requireField("answer_relevancy", "input", tc.Input); err != nil {
		return nil, err
	}
	if err := requireField("answer_relevancy", "actual output", tc.ActualOutput); err != nil {
		return nil, err
	}

	threshold := clampThreshold(m.Threshold, 0.8)

	var prompt bytes.Buffer
	prompt.WriteString("You are an expert evaluator. Assess whether the AI response directly answers the question.\n\n")
	prompt.WriteString("## Question\n")
	prompt.WriteString(tc.Input)
	prompt.WriteString("\n\n## AI Response\n")
	prompt.WriteString(tc.ActualOutput)
	prompt.WriteString("\n\n## Instructions\n")
	prompt.WriteString("Score relevancy from 0.0 to 1.0.\n")
	prompt.WriteString("- 0.0: Completely irrelevant or evasive\n")
	prompt.WriteString("- 1.0: Directly answers the question with no major digressions\n\n")
	prompt.WriteString("Output ONLY valid JSON in this exact format:\n")
	prompt.WriteString(`{"score": <number 0.0-1.0>, "reasoning": "<brief explanation>"}`)

	raw, err := askJudge(ctx, m.Client, "answer_relevancy", prompt.String())
	if err != nil {
		return nil, err
	}

	var out relevancyOutput
	if err := llm.ParseJSON(raw, &out); err != nil {
		return invalidJudgeOutput("answer_relevancy", raw, err), nil
	}

	score := clamp01(out.Score)
	return &Result{
		Passed:  score >= threshold,
		Score:   score,
		Reason:  reasonText(out.Reasoning, m.IncludeReason),
		Details: map[string]any{"threshold": threshold},
	}, nil
}
