package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleExport = `<http://ex/alice> <http://ex/knows> <http://ex/bob> .
<http://ex/alice> <http://ex/name> "Alice Smith" .
<http://ex/bob> <http://ex/age> "42" .
<http://ex/bob> <http://ex/name> "Bob Smith" .
<http://ex/carol> <http://ex/name> "Carol Jones" .
`

func TestExportCommand_Stdout(t *testing.T) {
	db := importSample(t)

	res := execute(t, "export", db)
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, sampleExport, res.stdout)
}

func TestExportCommand_OutputFileReimports(t *testing.T) {
	db := importSample(t)
	out := filepath.Join(t.TempDir(), "dump.nt")

	res := execute(t, "--format", "json", "export", db, "-o", out)
	require.NoError(t, res.err, res.stderr)

	var resp struct {
		Data ExportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, ExportResult{Triples: 5, Output: out}, resp.Data)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, sampleExport, string(data))

	copyDB := filepath.Join(t.TempDir(), "copy.db")
	res = execute(t, "import", "--db", copyDB, out)
	require.NoError(t, res.err, res.stderr)

	res = execute(t, "export", copyDB)
	require.NoError(t, res.err)
	assert.Equal(t, sampleExport, res.stdout)
}

func TestExportCommand_Errors(t *testing.T) {
	db := importSample(t)

	res := execute(t, "export", "/nonexistent.db")
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))

	res = execute(t, "export", db, "-o", filepath.Join(t.TempDir(), "missing", "dump.nt"))
	require.Error(t, res.err)
	assert.Equal(t, ExitCommandError, GetExitCode(res.err))
}
