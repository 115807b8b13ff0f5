package metric

import (
	"github.com/stellarlinkco/benchkit/internal/llm"
)

// DefaultRegistry builds a registry with every built-in metric wired to the
// given judge provider. A positive threshold overrides every metric's
// default; zero keeps the per-metric defaults.
func DefaultRegistry(judge llm.Provider, threshold float64, includeReason bool) *Registry {
	r := NewRegistry()
	r.Register(&Toxicity{Client: judge, Threshold: threshold, IncludeReason: includeReason})
	r.Register(&Faithfulness{Client: judge, Threshold: threshold, IncludeReason: includeReason})
	r.Register(&AnswerRelevancy{Client: judge, Threshold: threshold, IncludeReason: includeReason})
	r.Register(&Hallucination{Client: judge, Threshold: threshold, IncludeReason: includeReason})
	r.Register(&Summarization{Client: judge, Threshold: threshold, IncludeReason: includeReason})
	r.Register(&ContextualPrecision{Client: judge, Threshold: threshold, IncludeReason: includeReason})
	r.Register(&NonAdvice{Client: judge, Threshold: threshold, IncludeReason: includeReason})
	return r
}
