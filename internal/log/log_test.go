package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Level = "loud"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Path = t.TempDir()
	cfg.MaxAge = "soon"
	assert.Error(t, cfg.Validate())
}

func TestInitWriterAddsModule(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Format = "json"
	require.NoError(t, InitWriter(cfg, &buf))

	Logger("vecdb").Info("table created", "name", "demo")
	assert.Contains(t, buf.String(), `"module":"vecdb"`)
	assert.Contains(t, buf.String(), `"name":"demo"`)
}

func TestInitWriterRotatingFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	dir := filepath.Join(t.TempDir(), "logs")
	cfg := DefaultConfig()
	cfg.Path = dir
	cfg.DefaultPattern = "test.log"
	var buf bytes.Buffer
	require.NoError(t, InitWriter(cfg, &buf))

	slog.Info("hello")
	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
