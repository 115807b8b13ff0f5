package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/benchkit/internal/config"
)

type cliState struct {
	configPath string
	cfg        *config.Config
}

var (
	osExit                 = os.Exit
	stderrWriter io.Writer = os.Stderr
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderrWriter, err)
		osExit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{configPath: config.DefaultPath}

	root := &cobra.Command{
		Use:           "benchkit",
		Short:         "Run multiple-choice benchmarks and LLM-judged quality metrics",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", st.configPath, "path to config file")

	root.AddCommand(newRunCmd(st))
	root.AddCommand(newJudgeCmd(st))
	root.AddCommand(newTopicsCmd(st))
	root.AddCommand(newHistoryCmd(st))
	return root
}

// loadConfig reads the configured file, falling back to built-in defaults
// when the default path does not exist.
func loadConfig(st *cliState) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && st.configPath == config.DefaultPath {
			st.cfg = config.Default()
			return nil
		}
		return err
	}
	st.cfg = cfg
	return nil
}
