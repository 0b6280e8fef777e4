package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleq/internal/store"
)

func TestImportCommand_Text(t *testing.T) {
	nt := writeFile(t, "data.nt", sampleNT)
	db := filepath.Join(t.TempDir(), "data.db")

	res := execute(t, "import", "--db", db, nt)
	require.NoError(t, res.err)
	assert.Equal(t, "Imported 5 triples (3 subjects, 3 predicates, 5 objects, 0 duplicates)\n", res.stdout)
}

func TestImportCommand_JSON(t *testing.T) {
	nt := writeFile(t, "data.nt", sampleNT+"<http://ex/bob> <http://ex/age> \"42\" .\n")
	db := filepath.Join(t.TempDir(), "data.db")

	res := execute(t, "--format", "json", "import", "--db", db, nt)
	require.NoError(t, res.err)

	var resp struct {
		Status string            `json:"status"`
		Data   store.ImportStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, store.ImportStats{Triples: 5, Duplicates: 1, Subjects: 3, Predicates: 3, Objects: 5}, resp.Data)
}

func TestImportCommand_Stdin(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data.db")

	res := executeWithInput(t, sampleNT, "import", "--db", db, "-")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Imported 5 triples")
}

func TestImportCommand_NoSubstringIndex(t *testing.T) {
	db := importSample(t, "--no-substring-index")

	res := execute(t, "--format", "json", "stats", db)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"substring_index":false`)
}

func TestImportCommand_Errors(t *testing.T) {
	existing := importSample(t)

	tests := []struct {
		name     string
		stdin    string
		args     func(t *testing.T) []string
		wantCode int
		wantMsg  string
	}{
		{
			name: "missing input file",
			args: func(t *testing.T) []string {
				return []string{"import", "--db", filepath.Join(t.TempDir(), "x.db"), "/nonexistent.nt"}
			},
			wantCode: ExitCommandError,
			wantMsg:  "failed to open input",
		},
		{
			name: "malformed input",
			args: func(t *testing.T) []string {
				return []string{"import", "--db", filepath.Join(t.TempDir(), "x.db"), writeFile(t, "bad.nt", "<a> <b> .\n")}
			},
			wantCode: ExitCommandError,
			wantMsg:  "failed to parse input",
		},
		{
			name: "store already populated",
			args: func(t *testing.T) []string {
				return []string{"import", "--db", existing, writeFile(t, "data.nt", sampleNT)}
			},
			wantCode: ExitCommandError,
			wantMsg:  "database already holds a dataset",
		},
		{
			name: "bad config",
			args: func(t *testing.T) []string {
				return []string{"--config", writeFile(t, "c.cue", "buffer: limit: -1\n"),
					"import", "--db", filepath.Join(t.TempDir(), "x.db"), writeFile(t, "data.nt", sampleNT)}
			},
			wantCode: ExitCommandError,
			wantMsg:  "failed to load config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := executeWithInput(t, tt.stdin, tt.args(t)...)
			require.Error(t, res.err)
			assert.Equal(t, tt.wantCode, GetExitCode(res.err))
			assert.Contains(t, res.err.Error(), tt.wantMsg)
		})
	}
}

func TestImportCommand_RequiresDB(t *testing.T) {
	res := execute(t, "import", writeFile(t, "data.nt", sampleNT))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), `"db"`)
}
