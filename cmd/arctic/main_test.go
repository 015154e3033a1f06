package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama embeds text as counts of a, e and o plus a constant.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		p := strings.ToLower(req.Prompt)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{
			float64(strings.Count(p, "a")), float64(strings.Count(p, "e")), float64(strings.Count(p, "o")), 1,
		}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, ollamaURL string) string {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, "arctic.toml")
	content := fmt.Sprintf(`
[log]
level = "error"

[store]
path = %q
dimension = 4

[embedding]
provider = "ollama"
ollama_url = %q
ollama_model = "fake"
dimension = 4
normalize = true
cache = true
`, filepath.Join(dir, "store"), ollamaURL)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func run(t *testing.T, cfg string, args ...string) string {
	t.Helper()
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	require.NoError(t, root.Execute())
	return out.String()
}

func TestEmbedCommand(t *testing.T) {
	cfg := writeConfig(t, fakeOllama(t).URL)

	out := run(t, cfg, "embed", "aaa", "oe")
	var vecs [][]float32
	require.NoError(t, json.Unmarshal([]byte(out), &vecs))
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 4)
	assert.Greater(t, vecs[0][0], vecs[0][1])
}

func TestDemoCommand(t *testing.T) {
	cfg := writeConfig(t, fakeOllama(t).URL)

	out := run(t, cfg, "demo", "--limit", "2")
	assert.Contains(t, out, "query: ")
	assert.Contains(t, out, "1. ")
	assert.Contains(t, out, "2. ")
	assert.NotContains(t, out, "3. ")
}

func TestLTMCommands(t *testing.T) {
	cfg := writeConfig(t, fakeOllama(t).URL)

	out := run(t, cfg, "ltm", "store", "I prefer green tea")
	assert.Contains(t, out, "[preference]")

	out = run(t, cfg, "ltm", "store", "I prefer green tea")
	assert.Contains(t, out, "Similar memory already exists")

	assert.Contains(t, run(t, cfg, "ltm", "stats"), "Total memories: 1")
	assert.Contains(t, run(t, cfg, "ltm", "search", "I prefer green tea"), "I prefer green tea")
	assert.Contains(t, run(t, cfg, "ltm", "recall", "I prefer green tea"), "<relevant-memories>")

	out = run(t, cfg, "ltm", "forget", "I prefer green tea")
	assert.Contains(t, out, "Forgotten")
	assert.Contains(t, run(t, cfg, "ltm", "stats"), "Total memories: 0")
}

func TestTablesCommand(t *testing.T) {
	cfg := writeConfig(t, fakeOllama(t).URL)
	run(t, cfg, "demo")

	out := run(t, cfg, "tables")
	assert.Contains(t, out, "demo\trows=4\tdim=4")
	assert.Contains(t, run(t, cfg, "tables", "reindex", "demo"), "reindexed:4")
}
