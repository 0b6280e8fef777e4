package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleNT imports with these ids:
//
//	subjects:   alice=1 bob=2 carol=3
//	predicates: age=1 knows=2 name=3
//	objects:    "42"=1 "Alice Smith"=2 "Bob Smith"=3 "Carol Jones"=4 bob=5
const sampleNT = `<http://ex/alice> <http://ex/name> "Alice Smith" .
<http://ex/alice> <http://ex/knows> <http://ex/bob> .
<http://ex/bob> <http://ex/name> "Bob Smith" .
<http://ex/bob> <http://ex/age> "42" .
<http://ex/carol> <http://ex/name> "Carol Jones" .
`

type cmdResult struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with args.
func execute(t *testing.T, args ...string) cmdResult {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, stdin string, args ...string) cmdResult {
	t.Helper()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return cmdResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// importSample builds a store from sampleNT and returns its path.
func importSample(t *testing.T, extra ...string) string {
	t.Helper()

	nt := writeFile(t, "sample.nt", sampleNT)
	db := filepath.Join(t.TempDir(), "sample.db")
	args := append([]string{"import", "--db", db, nt}, extra...)

	res := execute(t, args...)
	require.NoError(t, res.err, res.stderr)
	return db
}
