package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type historyOptions struct {
	topic string
	limit int
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored benchmark runs",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if st == nil || st.cfg == nil {
				return fmt.Errorf("history: missing config (internal error)")
			}

			store, err := openResultsStore(st.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), opts.topic, opts.limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "id=%d topic=%s provider=%s model=%s shots=%d accuracy=%.4f (%d/%d) at=%s\n",
					r.ID,
					r.Topic,
					r.Provider,
					r.Model,
					r.Shots,
					r.Accuracy,
					r.Correct,
					r.Total,
					r.CreatedAt.Format(time.RFC3339),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.topic, "topic", "", "filter by topic")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "max runs to show (0 = default)")

	return cmd
}
