package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleq/internal/engine"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tripleq.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0, cfg.Drain.MaxIterations)
	assert.Equal(t, "0s", cfg.Drain.MaxDuration)
	assert.Equal(t, 100000, cfg.Buffer.Limit)
	assert.Equal(t, 256, cfg.Store.BatchSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.DrainBudget().Unbounded())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestDefault_MatchesEngineDefaults(t *testing.T) {
	assert.Equal(t, engine.DefaultBufferLimit, Default().Buffer.Limit)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
drain: {
	max_iterations: 5000
	max_duration:   "100ms"
}
log: level: "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, engine.DrainBudget{MaxIterations: 5000, MaxDuration: 100 * time.Millisecond}, cfg.DrainBudget())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "text", cfg.Log.Format, "untouched fields keep defaults")
	assert.Equal(t, 256, cfg.Store.BatchSize)
	assert.Len(t, cfg.SessionOptions(), 2)
	assert.Len(t, cfg.StoreOptions(), 1)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.True(t, IsLoadError(err, ErrCodeNotFound))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"syntax", "drain: {", ErrCodeSyntax},
		{"unknown field", "cache: size: 1", ErrCodeInvalid},
		{"negative iterations", "drain: max_iterations: -1", ErrCodeInvalid},
		{"zero batch size", "store: batch_size: 0", ErrCodeInvalid},
		{"bad level", `log: level: "trace"`, ErrCodeInvalid},
		{"wrong type", `buffer: limit: "many"`, ErrCodeInvalid},
		{"bad duration", `drain: max_duration: "soon"`, ErrCodeInvalid},
		{"negative duration", `drain: max_duration: "-1s"`, ErrCodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.src))
			require.Error(t, err)
			assert.True(t, IsLoadError(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadError_Position(t *testing.T) {
	path := writeConfig(t, "drain: {\n\tmax_duration: \"soon\"\n}\n")

	_, err := Load(path)
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	require.True(t, le.Pos.IsValid())
	assert.Equal(t, 2, le.Pos.Line())
	assert.Contains(t, err.Error(), "tripleq.cue:2:")
}

func TestLoadError_NoPosition(t *testing.T) {
	err := &LoadError{Code: ErrCodeNotFound, Message: "reading config: gone"}
	assert.Equal(t, "E201: reading config: gone", err.Error())
}
