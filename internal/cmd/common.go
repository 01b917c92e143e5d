package cmd

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/mdedit/internal/config"
	"github.com/stateful/mdedit/internal/config/autoconfig"
	"github.com/stateful/mdedit/internal/log"
)

// readInput reads a file, stdin for "-" or an https URL.
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	switch {
	case name == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read from stdin")
	case strings.HasPrefix(name, "https://"):
		client := http.Client{
			Timeout: time.Second * 10,
		}
		resp, err := client.Get(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get a file %q", name)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("failed to get a file %q: %s", name, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		return data, errors.Wrap(err, "failed to read body")
	default:
		data, err := os.ReadFile(name)
		return data, errors.Wrapf(err, "failed to read from file %q", name)
	}
}

func isLocalFile(name string) bool {
	return name != "-" && !strings.HasPrefix(name, "https://")
}

// documentPath returns name relative to the config directory, or an
// empty path if the document lives elsewhere.
func documentPath(configDir, name string) autoconfig.DocumentPath {
	if !isLocalFile(name) {
		return ""
	}
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return ""
	}
	absName, err := filepath.Abs(name)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(absDir, absName)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return autoconfig.DocumentPath(filepath.ToSlash(rel))
}

// newBuilder returns a builder configured for the document name.
func newBuilder(name string) (*autoconfig.Builder, error) {
	builder := autoconfig.NewBuilder()

	configDir, err := filepath.Abs(fConfigDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	err = builder.Decorate(func() *config.Loader {
		return config.NewLoader("mdedit", "yaml", os.DirFS(configDir), config.WithLogger(log.Get()))
	})
	if err != nil {
		return nil, err
	}

	path := documentPath(configDir, name)
	if err := builder.Decorate(func() autoconfig.DocumentPath { return path }); err != nil {
		return nil, err
	}

	// Logging flags take precedence over the configuration.
	if fLogEnabled || fLogVerbose || fLogPath != "" {
		err := builder.Decorate(func() *zap.Logger { return log.Get() })
		if err != nil {
			return nil, err
		}
	}
	return builder, nil
}

// writeOutput writes data to the file name if write is set, otherwise
// to the command output.
func writeOutput(cmd *cobra.Command, name string, write bool, data []byte) error {
	if write {
		if !isLocalFile(name) {
			return errors.Errorf("cannot write back to %q", name)
		}
		return errors.Wrapf(os.WriteFile(name, data, 0o644), "failed to write file %q", name)
	}
	_, err := cmd.OutOrStdout().Write(data)
	return errors.Wrap(err, "failed to write result")
}
