package autoconfig

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/internal/config"
	"github.com/stateful/mdedit/pkg/document/editor"
)

func newBuilder(t *testing.T, fsys fstest.MapFS, path DocumentPath) *Builder {
	t.Helper()

	builder := NewBuilder()
	err := builder.Decorate(
		func() (*config.Loader, error) {
			return config.NewLoader("mdedit", "yaml", fsys), nil
		},
	)
	require.NoError(t, err)
	err = builder.Decorate(func() DocumentPath { return path })
	require.NoError(t, err)
	return builder
}

func TestInvoke_Config(t *testing.T) {
	builder := newBuilder(t, fstest.MapFS{
		"mdedit.yaml": {
			Data: []byte("version: v1alpha1\neditor:\n  tab_size: 2\n"),
		},
		"notes/mdedit.yaml": {
			Data: []byte("version: v1alpha1\nclipboard:\n  code_block_style: indented\n"),
		},
		"notes/todo.md": {Data: []byte("- [ ] task\n")},
	}, "notes/todo.md")

	err := builder.Invoke(func(cfg *config.Config) error {
		require.Equal(t, 2, cfg.TabSize)
		require.Equal(t, "indented", cfg.CodeBlockStyle)
		require.Equal(t, "atx", cfg.HeadingStyle)
		return nil
	})
	require.NoError(t, err)
}

func TestInvoke_ConfigFromEnv(t *testing.T) {
	t.Setenv("MDEDIT_EDITOR_TAB_SIZE", "3")
	t.Setenv("MDEDIT_LOG_VERBOSE", "true")

	builder := newBuilder(t, fstest.MapFS{}, "")
	err := builder.Invoke(func(cfg *config.Config) error {
		require.Equal(t, 3, cfg.TabSize)
		require.True(t, cfg.LogVerbose)
		return nil
	})
	require.NoError(t, err)
}

func TestInvoke_InvalidConfig(t *testing.T) {
	builder := newBuilder(t, fstest.MapFS{
		"mdedit.yaml": {
			Data: []byte("version: v1alpha1\nclipboard:\n  heading_style: fancy\n"),
		},
	}, "")

	err := builder.Invoke(func(*config.Config) error { return nil })
	require.ErrorContains(t, err, "clipboard.heading_style")
}

func TestInvoke_Logger(t *testing.T) {
	builder := newBuilder(t, fstest.MapFS{}, "")
	err := builder.Invoke(func(logger *zap.Logger) error {
		require.False(t, logger.Core().Enabled(zap.ErrorLevel))
		return nil
	})
	require.NoError(t, err)
}

func TestInvoke_SessionFactory(t *testing.T) {
	builder := newBuilder(t, fstest.MapFS{
		"mdedit.yaml": {
			Data: []byte("version: v1alpha1\neditor:\n  tab_size: 1\n  bullet_list_marker: \"*\"\n"),
		},
	}, "")

	err := builder.Invoke(func(newSession SessionFactory) error {
		s := newSession(editor.WithTabSize(2))
		require.NoError(t, s.ImportMarkdown("* a\n* b\n"))
		require.Equal(t, "* a\n* b\n", s.ExportMarkdown())
		return s.Close()
	})
	require.NoError(t, err)
}
