package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zorse-project/zorse/pkg/publish"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ZORSE_TELEMETRY_DISABLED", "true")
	t.Setenv("ZORSE_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLanguagesCommand(t *testing.T) {
	out, err := execute(t, "languages")
	require.NoError(t, err)
	for _, want := range []string{"JCL", "HLASM", "COBOL", "RPGLE", "sqlrpgle", "cntl"} {
		assert.Contains(t, out, want)
	}
}

func TestPublishCommand_RejectsNonJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))
	t.Setenv("ZORSE_HUB_KIND", "local")
	t.Setenv("ZORSE_HUB_ROOT", filepath.Join(dir, "hub"))
	t.Setenv("HF_TOKEN", "token")

	_, err := execute(t, "publish", "--name", "mainframe", path)
	assert.ErrorIs(t, err, publish.ErrNotJSONL)

	_, statErr := os.Stat(filepath.Join(dir, "hub"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuildCommand_WritesCorpus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "COBOL", r.URL.Query().Get("config"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"rows": []any{map[string]any{"row_idx": 0, "row": map[string]any{
				"blob_id": "abc", "path": "README.txt", "extension": "txt", "language": "COBOL",
			}}},
			"num_rows_total": 1,
		})
	}))
	defer srv.Close()
	t.Setenv("ZORSE_STACK_ROWS_ENDPOINT", srv.URL)

	output := filepath.Join(t.TempDir(), "corpus.jsonl")
	out, err := execute(t, "build", "--output", output, "--languages", "COBOL")
	require.NoError(t, err)

	assert.Contains(t, out, "stack:COBOL")
	assert.Contains(t, out, "Wrote 0 records")
	info, err := os.Stat(output)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
