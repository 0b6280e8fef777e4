package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// ExportResult is the export command output.
type ExportResult struct {
	Triples uint64 `json:"triples"`
	Output  string `json:"output,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <db>",
		Short: "Write a store back out as N-Triples",
		Long: `Write every triple of a store as N-Triples, in store order.

Without -o the document goes to stdout and nothing else is printed there.

Examples:
  tripleq export ./data.db > data.nt
  tripleq export ./data.db -o data.nt --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the document to this file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, dbPath string, cmd *cobra.Command) (err error) {
	env, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	st, err := env.openDataset(dbPath)
	if err != nil {
		return err
	}
	defer closeStore(st, env.logger)

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = WrapExitError(ExitFailure, "failed to close output file", closeErr)
			}
		}()
		w = f
	}

	n, err := st.ExportNTriples(env.ctx, w)
	if err != nil {
		return queryFailure("export", err)
	}
	env.out.VerboseLog("%d triples exported", n)

	if opts.Output == "" {
		return nil
	}
	if opts.Format == "json" {
		return env.out.Success(ExportResult{Triples: n, Output: opts.Output})
	}
	return env.out.Success(fmt.Sprintf("Exported %d triples to %s", n, opts.Output))
}
