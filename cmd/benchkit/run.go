package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/benchkit/internal/config"
	"github.com/stellarlinkco/benchkit/internal/harness"
	"github.com/stellarlinkco/benchkit/internal/llm"
	"github.com/stellarlinkco/benchkit/internal/mmlu"
	"github.com/stellarlinkco/benchkit/internal/results"
)

type runOptions struct {
	topic      string
	provider   string
	model      string
	shots      int
	sampleSize int
	delay      time.Duration
	noSave     bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Score a benchmark topic against a model",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.topic, "topic", "", "benchmark topic (required)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().IntVar(&opts.shots, "shots", -1, "few-shot example count (-1 = config default)")
	cmd.Flags().IntVar(&opts.sampleSize, "sample-size", 0, "max test questions (0 = all)")
	cmd.Flags().DurationVar(&opts.delay, "delay", -1, "delay between model calls (-1 = config default)")
	cmd.Flags().BoolVar(&opts.noSave, "no-save", false, "do not persist the run")

	return cmd
}

func runBenchmark(cmd *cobra.Command, st *cliState, opts *runOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}

	topic := strings.TrimSpace(opts.topic)
	if topic == "" {
		return fmt.Errorf("run: missing --topic")
	}
	if opts.sampleSize < 0 {
		return fmt.Errorf("run: --sample-size must be >= 0 (got %d)", opts.sampleSize)
	}

	provider, err := resolveProvider(st.cfg, opts.provider, opts.model)
	if err != nil {
		return err
	}

	shots := opts.shots
	if shots < 0 {
		shots = st.cfg.Benchmark.Shots
	}
	delay := opts.delay
	if delay < 0 {
		delay = st.cfg.Benchmark.CallDelay()
	}
	sampleSize := opts.sampleSize
	if sampleSize == 0 {
		sampleSize = st.cfg.Benchmark.SampleSize
	}

	dataDir := st.cfg.Benchmark.DataDir
	devRows, err := mmlu.LoadPartition(dataDir, topic, mmlu.PartitionDev)
	if err != nil {
		return err
	}
	testRows, err := mmlu.LoadPartition(dataDir, topic, mmlu.PartitionTest)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &harness.Runner{
		Provider:   provider,
		Shots:      shots,
		CallDelay:  delay,
		SampleSize: sampleSize,
	}
	report, runErr := r.Run(ctx, topic, devRows, testRows)
	if report == nil {
		return runErr
	}
	if opts.model != "" {
		report.Model = strings.TrimSpace(opts.model)
	}

	out := cmd.OutOrStdout()
	if runErr != nil {
		fmt.Fprintf(out, "Run aborted after %d/%d questions: %v\n", report.Total, len(testRows), runErr)
	}
	fmt.Fprintf(out, "Topic: %s\nProvider: %s\nModel: %s\nShots: %d\nQuestions: %d\nCorrect: %d\nAccuracy: %.4f\nTime: %s\nTokens: %d\n",
		report.Topic,
		report.Provider,
		report.Model,
		report.Shots,
		report.Total,
		report.Correct,
		report.Accuracy,
		report.TotalTime.Round(time.Millisecond),
		report.TotalTokens,
	)

	if !opts.noSave && report.Total > 0 {
		store, err := openResultsStore(st.cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.SaveReport(context.Background(), report)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved run id=%d\n", id)
	}

	return runErr
}

func resolveProvider(cfg *config.Config, providerFlag, modelFlag string) (llm.Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("run: missing config")
	}

	name := strings.TrimSpace(providerFlag)
	if name == "" {
		name = strings.TrimSpace(cfg.LLM.DefaultProvider)
	}
	name = llm.NormalizeProviderName(name)

	pcfg, ok := cfg.LLM.Providers[name]
	if !ok && providerFlag != "" {
		return nil, fmt.Errorf("run: provider %q not configured", name)
	}

	model := strings.TrimSpace(modelFlag)
	if model == "" {
		model = strings.TrimSpace(pcfg.Model)
	}

	switch name {
	case "anthropic":
		return llm.NewAnthropicProvider(pcfg.APIKey, pcfg.BaseURL, model, pcfg.RetryMax), nil
	case "openai":
		return llm.NewOpenAIProvider(pcfg.APIKey, pcfg.BaseURL, model, pcfg.RetryMax), nil
	default:
		return nil, fmt.Errorf("run: unsupported provider %q (expected anthropic|openai)", name)
	}
}

func openResultsStore(cfg *config.Config) (*results.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("results: missing config")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Type)) {
	case "", "sqlite":
		path := strings.TrimSpace(cfg.Storage.Path)
		if path == "" {
			path = results.DefaultSQLitePath
		}
		return results.NewStore(path)
	case "memory":
		return results.NewStore(":memory:")
	default:
		return nil, fmt.Errorf("results: unsupported storage type %q", cfg.Storage.Type)
	}
}
