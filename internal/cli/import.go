package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleq/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Database         string
	NoSubstringIndex bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file.nt>",
		Short: "Build a store from N-Triples",
		Long: `Build a tripleq store from an N-Triples file.

The database is created if needed and must not already hold a dataset.
Term ids are assigned per role in sorted order. Use "-" to read from
standard input.

Examples:
  tripleq import --db ./data.db ./data.nt
  cat data.nt | tripleq import --db ./data.db -
  tripleq import --db ./data.db ./data.nt --no-substring-index`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().BoolVar(&opts.NoSubstringIndex, "no-substring-index", false, "skip the case-folded column used by substring search")

	return cmd
}

func runImport(opts *ImportOptions, source string, cmd *cobra.Command) error {
	env, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if source != "-" {
		f, err := os.Open(source)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open input", err)
		}
		defer f.Close()
		r = f
	}

	env.logger.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database, append(env.cfg.StoreOptions(), store.WithLogger(env.logger))...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, env.logger)

	var importOpts []store.ImportOption
	if opts.NoSubstringIndex {
		importOpts = append(importOpts, store.WithoutSubstringIndex())
	}

	stats, err := st.ImportNTriples(env.ctx, r, importOpts...)
	if err != nil {
		var parseErr *store.ParseError
		switch {
		case errors.As(err, &parseErr):
			return WrapExitError(ExitCommandError, "failed to parse input", err)
		case errors.Is(err, store.ErrStoreNotEmpty):
			return WrapExitError(ExitCommandError, "database already holds a dataset", err)
		default:
			return WrapExitError(ExitFailure, "import failed", err)
		}
	}

	if opts.Format == "json" {
		return env.out.Success(stats)
	}
	return env.out.Success(fmt.Sprintf("Imported %d triples (%d subjects, %d predicates, %d objects, %d duplicates)",
		stats.Triples, stats.Subjects, stats.Predicates, stats.Objects, stats.Duplicates))
}
