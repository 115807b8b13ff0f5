package metric

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stellarlinkco/benchkit/internal/llm"
)

// fakeJudge returns a canned reply and records the request it was given.
type fakeJudge struct {
	reply  string
	err    error
	prompt string
	temp   *float64
}

func (f *fakeJudge) Name() string { return "fake" }

func (f *fakeJudge) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if len(req.Messages) > 0 {
		f.prompt = req.Messages[0].Content
	}
	f.temp = req.Temperature
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.reply}, nil
}

func ragCase() *TestCase {
	return &TestCase{
		Input:            "What causes tides?",
		ActualOutput:     "Tides are caused by the gravitational pull of the Moon.",
		ExpectedOutput:   "The Moon's gravity.",
		Context:          []string{"Tides result from lunar gravity."},
		RetrievalContext: []string{"The Moon's gravitational pull causes ocean tides."},
	}
}

func TestToxicity_Measure(t *testing.T) {
	judge := &fakeJudge{reply: `{"toxicity": 0.05, "reasoning": "benign", "categories": []}`}
	m := &Toxicity{Client: judge, IncludeReason: true}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if !res.Passed {
		t.Fatal("low toxicity should pass the default threshold")
	}
	if res.Score != 0.95 {
		t.Fatalf("score: got %v want 0.95", res.Score)
	}
	if res.Reason != "benign" {
		t.Fatalf("reason: got %q", res.Reason)
	}
	if !strings.Contains(judge.prompt, "Tides are caused") {
		t.Fatal("judge prompt does not include the actual output")
	}
	if judge.temp == nil || *judge.temp != 0 {
		t.Fatalf("judge temperature not pinned to zero (got %v)", judge.temp)
	}
}

func TestToxicity_FailsAboveThreshold(t *testing.T) {
	judge := &fakeJudge{reply: `{"toxicity": 0.4, "reasoning": "insulting"}`}
	m := &Toxicity{Client: judge}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if res.Passed {
		t.Fatal("toxicity above threshold should fail")
	}
	if res.Reason != "" {
		t.Fatalf("reason should be suppressed without IncludeReason, got %q", res.Reason)
	}
}

func TestFaithfulness_Measure(t *testing.T) {
	judge := &fakeJudge{reply: `{"score": 0.9, "reasoning": "grounded", "unsupported_claims": []}`}
	m := &Faithfulness{Client: judge, IncludeReason: true}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if !res.Passed || res.Score != 0.9 {
		t.Fatalf("result: got passed=%v score=%v", res.Passed, res.Score)
	}
	if !strings.Contains(judge.prompt, "[1] The Moon's gravitational pull") {
		t.Fatal("judge prompt does not include the numbered retrieval context")
	}
}

func TestFaithfulness_MissingRetrievalContext(t *testing.T) {
	m := &Faithfulness{Client: &fakeJudge{reply: "{}"}}
	tc := ragCase()
	tc.RetrievalContext = nil

	if _, err := m.Measure(context.Background(), tc); err == nil {
		t.Fatal("expected error for missing retrieval context")
	}
}

func TestAnswerRelevancy_Measure(t *testing.T) {
	judge := &fakeJudge{reply: `{"score": 0.85, "reasoning": "on topic"}`}
	m := &AnswerRelevancy{Client: judge}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if !res.Passed || res.Score != 0.85 {
		t.Fatalf("result: got passed=%v score=%v", res.Passed, res.Score)
	}
}

func TestAnswerRelevancy_MissingInput(t *testing.T) {
	m := &AnswerRelevancy{Client: &fakeJudge{reply: "{}"}}
	tc := ragCase()
	tc.Input = ""

	if _, err := m.Measure(context.Background(), tc); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestHallucination_Measure(t *testing.T) {
	judge := &fakeJudge{reply: `{"score": 0.95, "reasoning": "consistent"}`}
	m := &Hallucination{Client: judge}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if !res.Passed {
		t.Fatal("consistent output should pass")
	}
}

func TestHallucination_MissingContext(t *testing.T) {
	m := &Hallucination{Client: &fakeJudge{reply: "{}"}}
	tc := ragCase()
	tc.Context = nil

	if _, err := m.Measure(context.Background(), tc); err == nil {
		t.Fatal("expected error for missing context")
	}
}

func TestSummarization_Measure(t *testing.T) {
	judge := &fakeJudge{reply: `{"score": 0.75, "reasoning": "covers the key points"}`}
	m := &Summarization{Client: judge}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if !res.Passed || res.Score != 0.75 {
		t.Fatalf("result: got passed=%v score=%v", res.Passed, res.Score)
	}
}

func TestContextualPrecision_Measure(t *testing.T) {
	judge := &fakeJudge{reply: `{"score": 0.6, "reasoning": "relevant chunk ranked first"}`}
	m := &ContextualPrecision{Client: judge}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if res.Passed {
		t.Fatal("score below default threshold should fail")
	}
	if res.Score != 0.6 {
		t.Fatalf("score: got %v want 0.6", res.Score)
	}
}

func TestNonAdvice_Measure(t *testing.T) {
	judge := &fakeJudge{reply: `{"advice": 0.0, "reasoning": "informational only"}`}
	m := &NonAdvice{Client: judge}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if !res.Passed || res.Score != 1.0 {
		t.Fatalf("result: got passed=%v score=%v", res.Passed, res.Score)
	}
	if !strings.Contains(judge.prompt, "medical, legal, financial") {
		t.Fatal("judge prompt does not list the default advice types")
	}
}

func TestNonAdvice_CustomTypes(t *testing.T) {
	judge := &fakeJudge{reply: `{"advice": 0.8, "reasoning": "tells the user which stock to buy", "findings": ["buy ACME"]}`}
	m := &NonAdvice{Client: judge, AdviceTypes: []string{"investment"}}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if res.Passed {
		t.Fatal("strong advice should fail")
	}
	if !strings.Contains(judge.prompt, "investment") {
		t.Fatal("judge prompt does not mention the custom advice type")
	}
}

func TestMeasure_InvalidJudgeJSON(t *testing.T) {
	judge := &fakeJudge{reply: "I cannot answer in JSON, sorry."}
	m := &Toxicity{Client: judge}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if res.Passed || res.Score != 0 {
		t.Fatalf("invalid judge output: got passed=%v score=%v", res.Passed, res.Score)
	}
	if !strings.Contains(res.Reason, "invalid") {
		t.Fatalf("reason: got %q", res.Reason)
	}
}

func TestMeasure_JudgeCallError(t *testing.T) {
	judge := &fakeJudge{err: errors.New("boom")}
	m := &Faithfulness{Client: judge}

	if _, err := m.Measure(context.Background(), ragCase()); err == nil {
		t.Fatal("expected judge call error to propagate")
	}
}

func TestMeasure_ScoreClamped(t *testing.T) {
	judge := &fakeJudge{reply: `{"score": 1.7, "reasoning": "over-enthusiastic"}`}
	m := &AnswerRelevancy{Client: judge}

	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if res.Score != 1.0 {
		t.Fatalf("score: got %v want clamped 1.0", res.Score)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(&fakeJudge{}, 0, false)

	want := []string{
		"answer_relevancy",
		"contextual_precision",
		"faithfulness",
		"hallucination",
		"non_advice",
		"summarization",
		"toxicity",
	}
	for _, name := range want {
		if _, ok := r.Get(name); !ok {
			t.Fatalf("registry missing %q", name)
		}
	}
	if len(r.Names()) != len(want) {
		t.Fatalf("registry size: got %d want %d", len(r.Names()), len(want))
	}
}

func TestDefaultRegistry_ThresholdOverride(t *testing.T) {
	judge := &fakeJudge{reply: `{"score": 0.5, "reasoning": "middling"}`}
	r := DefaultRegistry(judge, 0.4, false)

	m, ok := r.Get("answer_relevancy")
	if !ok {
		t.Fatal("registry missing answer_relevancy")
	}
	res, err := m.Measure(context.Background(), ragCase())
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	// 0.5 fails the 0.8 default but passes the 0.4 override.
	if !res.Passed {
		t.Fatal("score above overridden threshold should pass")
	}
}
