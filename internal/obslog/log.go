// Package obslog configures the structured logger shared by the
// orchestrator, merge coordinator, and agent process manager. Console
// output for interactive commands is handled separately by internal/ux;
// this logger is the durable JSON trail under .ralph-ui/.
package obslog

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger that writes JSON lines to <projectRoot>/.ralph-ui/ralphctl.log
// and, when attached to a TTY, a human-readable copy to stderr.
func New(projectRoot string, level zerolog.Level) (zerolog.Logger, error) {
	logDir := filepath.Join(projectRoot, ".ralph-ui")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return zerolog.Logger{}, err
	}
	f, err := os.OpenFile(filepath.Join(logDir, "ralphctl.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, err
	}

	var writers []io.Writer
	writers = append(writers, f)
	if isTerminal(os.Stderr) {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
