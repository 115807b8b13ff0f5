package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stellarlinkco/benchkit/internal/llm"
	"github.com/stellarlinkco/benchkit/internal/mmlu"
)

// answerInstruction steers the model to reply with a bare letter so a
// one-token completion is enough.
const answerInstruction = "Follow the answer instructions strictly, and answer only with the letter corresponding to the correct answer."

const defaultCallDelay = time.Second

// Runner executes the sequential scoring loop for one topic: few-shot
// preamble from the dev rows, one model call per test row, fixed delay
// between calls to respect the shared outbound rate limit.
type Runner struct {
	Provider   llm.Provider
	Shots      int
	CallDelay  time.Duration
	SampleSize int // 0 = all test rows
}

type Report struct {
	Topic       string
	Provider    string
	Model       string
	Shots       int
	Answers     []Answer
	Total       int
	Correct     int
	Accuracy    float64
	TotalTime   time.Duration
	TotalTokens int
}

type Answer struct {
	Index     int
	Predicted string
	Expected  string
	Correct   bool
	LatencyMs int64
}

// Run scores the test rows of a topic. A failed model call is fatal for the
// run: the report built so far is returned along with the error.
func (r *Runner) Run(ctx context.Context, topic string, devRows, testRows []mmlu.Row) (*Report, error) {
	if r == nil {
		return nil, errors.New("harness: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("harness: nil context")
	}
	if r.Provider == nil {
		return nil, errors.New("harness: nil provider")
	}
	if len(testRows) == 0 {
		return nil, errors.New("harness: empty test table")
	}

	shots := r.Shots
	if shots < 0 {
		shots = 0
	}
	fewShot, err := mmlu.GenPrompt(devRows, topic, shots)
	if err != nil {
		return nil, err
	}

	delay := r.CallDelay
	if delay < 0 {
		delay = defaultCallDelay
	}

	total := len(testRows)
	if r.SampleSize > 0 && r.SampleSize < total {
		total = r.SampleSize
	}

	start := time.Now()
	out := &Report{
		Topic:    strings.TrimSpace(topic),
		Provider: strings.TrimSpace(r.Provider.Name()),
		Shots:    shots,
		Answers:  make([]Answer, 0, total),
	}

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			finishReport(out, start)
			return out, err
		}

		target, err := mmlu.FormatExample(testRows, i, false)
		if err != nil {
			finishReport(out, start)
			return out, err
		}

		resp, err := r.Provider.Complete(ctx, &llm.Request{
			System:      answerInstruction,
			Messages:    []llm.Message{{Role: "user", Content: fewShot + target}},
			MaxTokens:   1,
			Temperature: llm.Temp(0),
		})
		if err != nil {
			finishReport(out, start)
			return out, fmt.Errorf("harness: %s question %d: %w", out.Topic, i, err)
		}

		ans := Answer{
			Index:     i,
			Predicted: ParseLetter(resp.Text),
			Expected:  testRows[i].Answer,
			LatencyMs: resp.LatencyMs,
		}
		ans.Correct = ans.Predicted != "" && ans.Predicted == ans.Expected
		if ans.Correct {
			out.Correct++
		}
		out.Answers = append(out.Answers, ans)
		out.TotalTokens += resp.Usage.InputTokens + resp.Usage.OutputTokens
		if out.Model == "" {
			out.Model = strings.TrimSpace(resp.Model)
		}

		if i < total-1 {
			if err := sleepWithContext(ctx, delay); err != nil {
				finishReport(out, start)
				return out, err
			}
		}
	}

	finishReport(out, start)
	return out, nil
}

func finishReport(out *Report, start time.Time) {
	out.Total = len(out.Answers)
	out.TotalTime = time.Since(start)

	predicted := make([]string, 0, len(out.Answers))
	expected := make([]string, 0, len(out.Answers))
	for _, a := range out.Answers {
		predicted = append(predicted, a.Predicted)
		expected = append(expected, a.Expected)
	}
	out.Accuracy = Accuracy(predicted, expected)
}

// Accuracy is the fraction of positions where the predicted letter equals
// the true letter. Zero for empty input. Re-scoring the same sequences
// always yields the same ratio.
func Accuracy(predicted, truth []string) float64 {
	n := len(truth)
	if len(predicted) < n {
		n = len(predicted)
	}
	if len(truth) == 0 {
		return 0
	}

	correct := 0
	for i := 0; i < n; i++ {
		if predicted[i] == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

// ParseLetter extracts the first standalone A-D token from model output,
// upper-cased. Empty string if the output contains none.
func ParseLetter(s string) string {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'd' {
			c = c - 'a' + 'A'
		}
		if c < 'A' || c > 'D' {
			continue
		}
		prevOK := i == 0 || !isAlphaNum(s[i-1])
		nextOK := i+1 == len(s) || !isAlphaNum(s[i+1])
		if prevOK && nextOK {
			return string(c)
		}
	}
	return ""
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
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
