package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleq/internal/config"
	"github.com/roach88/tripleq/internal/ir"
	"github.com/roach88/tripleq/internal/queryir"
	"github.com/roach88/tripleq/internal/store"
)

// loadConfig returns the configuration named by --config, or the defaults.
func (o *RootOptions) loadConfig() (config.Config, error) {
	if o.Config == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newLogger builds the command logger from cfg.Log; --verbose forces Debug.
func (o *RootOptions) newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := cfg.LogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// formatter returns an OutputFormatter writing to the command streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// commandEnv is what every query command needs before doing work.
type commandEnv struct {
	ctx    context.Context
	cfg    config.Config
	logger *slog.Logger
	out    *OutputFormatter
}

func (o *RootOptions) setup(cmd *cobra.Command) (*commandEnv, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return &commandEnv{
		ctx:    ctx,
		cfg:    cfg,
		logger: o.newLogger(cfg, cmd.ErrOrStderr()),
		out:    o.formatter(cmd),
	}, nil
}

// openDataset opens an imported store read-only.
func (e *commandEnv) openDataset(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path), err)
	}
	opts := append(e.cfg.StoreOptions(), store.WithLogger(e.logger))
	st, err := store.OpenReadOnly(path, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

// queryFailure wraps a query error with ExitFailure and a message naming
// its category.
func queryFailure(op string, err error) *ExitError {
	switch {
	case ir.IsUnsupportedCapability(err):
		return WrapExitError(ExitFailure, op+": the store does not support substring search", err)
	case ir.IsUnresolvedTerm(err):
		return WrapExitError(ExitFailure, op+": term not in the dictionary", err)
	default:
		return WrapExitError(ExitFailure, op+" failed", err)
	}
}

// patternFlags are the textual pattern flags shared by count and nearest.
type patternFlags struct {
	Subject   string
	Predicate string
	Object    string
}

func (p *patternFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.Subject, "subject", "", "subject term (empty = any)")
	cmd.Flags().StringVar(&p.Predicate, "predicate", "", "predicate term (empty = any)")
	cmd.Flags().StringVar(&p.Object, "object", "", "object term (empty = any)")
}

func (p *patternFlags) pattern() ir.TripleString {
	return ir.TripleString{Subject: p.Subject, Predicate: p.Predicate, Object: p.Object}
}

// query validates the flags as a Select query.
func (p *patternFlags) query() (queryir.Select, error) {
	q := queryir.Select{Pattern: p.pattern()}
	if res := queryir.Validate(q); !res.Valid {
		return queryir.Select{}, NewExitError(ExitCommandError, "invalid pattern: "+strings.Join(res.Problems, "; "))
	}
	return q, nil
}
