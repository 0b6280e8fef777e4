// Package config loads tripleq configuration files.
//
// A configuration file is CUE. It is unified with an embedded closed schema
// (schema.cue) that supplies every default, so an empty file and a missing
// --config flag mean the same thing. Unknown fields are rejected.
//
//	drain: max_iterations: 5000
//	log: format: "json"
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tripleq/internal/engine"
	"github.com/roach88/tripleq/internal/store"
)

//go:embed schema.cue
var schemaCUE []byte

// Error codes carried by LoadError.
const (
	ErrCodeNotFound = "E201" // configuration file missing or unreadable
	ErrCodeSyntax   = "E202" // CUE does not parse
	ErrCodeInvalid  = "E203" // value violates the schema
)

// LoadError describes a configuration problem, with the CUE position when
// one is known.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is a *LoadError with the given code.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == code
}

// Config is the decoded configuration.
type Config struct {
	Drain  DrainConfig  `json:"drain"`
	Buffer BufferConfig `json:"buffer"`
	Store  StoreConfig  `json:"store"`
	Log    LogConfig    `json:"log"`
}

// DrainConfig bounds one drain slice. Zero values mean no bound.
type DrainConfig struct {
	// MaxIterations is the number of triples pulled per slice.
	MaxIterations int `json:"max_iterations"`

	// MaxDuration is a Go duration string such as "100ms".
	MaxDuration string `json:"max_duration"`

	maxDuration time.Duration
}

// BufferConfig sizes the nearest-match buffer loaded with each dataset.
// A zero Limit disables the buffer.
type BufferConfig struct {
	Limit int `json:"limit"`
}

// StoreConfig tunes the SQLite store.
type StoreConfig struct {
	// BatchSize is the number of triples a cursor fetches per page.
	BatchSize int `json:"batch_size"`
}

// LogConfig selects the slog handler: Level is debug, info, warn or
// error, Format is text or json.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := Parse(nil, "default.cue")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading config: %v", err)}
	}
	return Parse(data, path)
}

// Parse validates CUE source against the schema and decodes it.
// filename is used in error positions only.
func Parse(data []byte, filename string) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fromCUE(ErrCodeSyntax, err)
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, fromCUE(ErrCodeSyntax, err)
	}

	value := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fromCUE(ErrCodeInvalid, err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return Config{}, fromCUE(ErrCodeInvalid, err)
	}

	d, err := time.ParseDuration(cfg.Drain.MaxDuration)
	if err != nil || d < 0 {
		path := cue.ParsePath("drain.max_duration")
		pos := user.LookupPath(path).Pos()
		if !pos.IsValid() {
			pos = value.LookupPath(path).Pos()
		}
		return Config{}, &LoadError{
			Code:    ErrCodeInvalid,
			Message: fmt.Sprintf("drain.max_duration: %q is not a non-negative duration", cfg.Drain.MaxDuration),
			Pos:     pos,
		}
	}
	cfg.Drain.maxDuration = d

	return cfg, nil
}

// fromCUE converts the first CUE error to a LoadError.
func fromCUE(code string, err error) *LoadError {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := list[0]
	return &LoadError{
		Code:    code,
		Message: first.Error(),
		Pos:     first.Position(),
	}
}

// DrainBudget returns the session drain budget.
func (c Config) DrainBudget() engine.DrainBudget {
	return engine.DrainBudget{
		MaxIterations: c.Drain.MaxIterations,
		MaxDuration:   c.Drain.maxDuration,
	}
}

// SessionOptions returns the session options the configuration implies.
func (c Config) SessionOptions() []engine.SessionOption {
	return []engine.SessionOption{
		engine.WithDrainBudget(c.DrainBudget()),
		engine.WithBufferLimit(c.Buffer.Limit),
	}
}

// StoreOptions returns the store options the configuration implies.
func (c Config) StoreOptions() []store.Option {
	return []store.Option{store.WithBatchSize(c.Store.BatchSize)}
}

// LogLevel returns the slog level for Log.Level.
func (c Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
