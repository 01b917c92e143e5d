package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	logger := defaultLogger
	t.Cleanup(func() { defaultLogger = logger })
}

func TestSet_File(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "mdedit.log")

	require.NoError(t, Set(true, path))
	Get().Debug("hello")
	Flush()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.True(t, Get().Core().Enabled(zap.DebugLevel))
}

func TestSet_InvalidPath(t *testing.T) {
	restoreLogger(t)
	before := Get()

	err := Set(false, filepath.Join(t.TempDir(), "missing", "mdedit.log"))
	require.Error(t, err)
	assert.Same(t, before, Get())
}
