package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/benchkit/internal/mmlu"
)

func newTopicsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List benchmark topics in the data directory",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if st == nil || st.cfg == nil {
				return fmt.Errorf("topics: missing config (internal error)")
			}

			topics, err := mmlu.Topics(st.cfg.Benchmark.DataDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(topics) == 0 {
				fmt.Fprintf(out, "No topics found in %s\n", st.cfg.Benchmark.DataDir)
				return nil
			}
			for _, t := range topics {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}
}
