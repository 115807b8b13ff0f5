package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/benchkit/internal/llm"
	"github.com/stellarlinkco/benchkit/internal/metric"
)

type judgeOptions struct {
	metricName string
	input      string
	actual     string
	expected   string
	contexts   []string
	retrieval  []string
	threshold  float64
	noReason   bool
}

func newJudgeCmd(st *cliState) *cobra.Command {
	var opts judgeOptions

	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Score a test case with an LLM-judged quality metric",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJudge(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.metricName, "metric", "", "metric name (required)")
	cmd.Flags().StringVar(&opts.input, "input", "", "input given to the model under test")
	cmd.Flags().StringVar(&opts.actual, "actual", "", "model output to score (required)")
	cmd.Flags().StringVar(&opts.expected, "expected", "", "expected output, if any")
	cmd.Flags().StringArrayVar(&opts.contexts, "context", nil, "ground-truth context block (repeatable)")
	cmd.Flags().StringArrayVar(&opts.retrieval, "retrieval-context", nil, "retrieved passage (repeatable)")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "pass threshold override (0 = metric default)")
	cmd.Flags().BoolVar(&opts.noReason, "no-reason", false, "omit the judge's textual reason")

	return cmd
}

func runJudge(cmd *cobra.Command, st *cliState, opts *judgeOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("judge: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("judge: nil options")
	}

	name := strings.TrimSpace(opts.metricName)
	if name == "" {
		return fmt.Errorf("judge: missing --metric")
	}

	judgeProvider, err := llm.JudgeFromConfig(st.cfg)
	if err != nil {
		return err
	}

	reg := metric.DefaultRegistry(judgeProvider, opts.threshold, !opts.noReason)
	m, ok := reg.Get(name)
	if !ok {
		names := reg.Names()
		sort.Strings(names)
		return fmt.Errorf("judge: unknown metric %q (available: %s)", name, strings.Join(names, ", "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := m.Measure(ctx, &metric.TestCase{
		Input:            opts.input,
		ActualOutput:     opts.actual,
		ExpectedOutput:   opts.expected,
		Context:          opts.contexts,
		RetrievalContext: opts.retrieval,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Metric: %s\nScore: %.4f\nPassed: %v\n", m.Name(), res.Score, res.Passed)
	if res.Reason != "" {
		fmt.Fprintf(out, "Reason: %s\n", res.Reason)
	}
	return nil
}
