package log

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var defaultLogger = zap.NewNop()

func Get() *zap.Logger {
	return defaultLogger
}

// Set replaces the process logger. Output goes to stderr unless path is set.
// The current logger is kept if the new one cannot be built.
func Set(verbose bool, path string) error {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	output := "stderr"
	if path != "" {
		output = path
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      verbose,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return errors.Wrapf(err, "failed to build logger for %q", output)
	}
	defaultLogger = logger
	return nil
}

func Flush() {
	_ = defaultLogger.Sync()
}
