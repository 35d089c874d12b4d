package main

import (
	"io"

	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	config      string
	db          string
	player      string
	trace       bool
	metricsAddr string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "softeval",
		Short:         "Evaluate MUSH softcode expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "Path to a .yaml or .conf evaluator config")
	rootCmd.PersistentFlags().StringVar(&opts.db, "db", "", "Path to the bbolt world database (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&opts.player, "player", "p", "#1", "Executor, as #dbref or player name")
	rootCmd.PersistentFlags().BoolVar(&opts.trace, "trace", false, "Set TRACE on the executor for this run")
	rootCmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")

	rootCmd.AddCommand(
		newEvalCmd(opts),
		newReplCmd(opts),
		newBatchCmd(opts),
		newSetCmd(opts),
		newFuncCmd(opts),
		newCheckCmd(opts),
	)
	return rootCmd
}
