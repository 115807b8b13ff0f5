package metric

import (
	"context"
	"strings"
)

// TestCase bundles the material a metric judges: the prompt given to the
// model under test, what it produced, and any supporting contexts.
type TestCase struct {
	Input            string
	ActualOutput     string
	ExpectedOutput   string
	Context          []string // ground-truth context the output must agree with
	RetrievalContext []string // retrieved passages the output must be grounded in
}

// Result is the outcome of one Measure call. Score is normalized to [0,1].
type Result struct {
	Score   float64
	Reason  string
	Passed  bool
	Details map[string]any
}

// Metric scores a test case with a single judge-model call.
type Metric interface {
	Name() string
	Measure(ctx context.Context, tc *TestCase) (*Result, error)
}

// Registry stores metrics by name.
type Registry struct {
	metrics map[string]Metric
}

func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]Metric)}
}

func (r *Registry) Register(m Metric) {
	if r == nil {
		panic("metric: register on nil registry")
	}
	if m == nil {
		panic("metric: register nil metric")
	}
	name := strings.TrimSpace(m.Name())
	if name == "" {
		panic("metric: metric has empty name")
	}
	if r.metrics == nil {
		r.metrics = make(map[string]Metric)
	}
	r.metrics[name] = m
}

func (r *Registry) Get(name string) (Metric, bool) {
	if r == nil || r.metrics == nil {
		return nil, false
	}
	m, ok := r.metrics[strings.TrimSpace(name)]
	return m, ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.metrics))
	for k := range r.metrics {
		out = append(out, k)
	}
	return out
}
