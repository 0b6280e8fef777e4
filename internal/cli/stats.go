package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <db>",
		Short: "Show store statistics",
		Long: `Show the triple and term counts of a store and whether it supports
substring search.

Examples:
  tripleq stats ./data.db
  tripleq stats ./data.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runStats(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
	env, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	st, err := env.openDataset(dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st, env.logger)

	stats, err := st.Stats(env.ctx)
	if err != nil {
		return queryFailure("stats", err)
	}

	if opts.Format == "json" {
		return env.out.Success(stats)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Triples:         %d\n", stats.Triples)
	fmt.Fprintf(&b, "Subjects:        %d\n", stats.Subjects)
	fmt.Fprintf(&b, "Predicates:      %d\n", stats.Predicates)
	fmt.Fprintf(&b, "Objects:         %d\n", stats.Objects)
	fmt.Fprintf(&b, "Substring index: %t\n", stats.SubstringIndex)
	fmt.Fprintf(&b, "Format version:  %s", stats.FormatVersion)
	return env.out.Success(b.String())
}
