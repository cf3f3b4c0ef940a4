package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackb/repl-session/pkg/procutil"
)

const (
	REPL_LOG_LEVEL = procutil.EnvVar("REPL_LOG_LEVEL")
	REPL_LOG_FILE  = procutil.EnvVar("REPL_LOG_FILE")
)

// DefaultLevel is used when neither a flag nor REPL_LOG_LEVEL name a level.
const DefaultLevel = zerolog.WarnLevel

// Level returns the level named by flagValue, else by REPL_LOG_LEVEL, else
// DefaultLevel.
func Level(flagValue string) (zerolog.Level, error) {
	name := flagValue
	if name == "" {
		name = procutil.LookupStringEnv(REPL_LOG_LEVEL, "")
	}
	if name == "" {
		return DefaultLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// New returns a console logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(w),
	}).Level(level).With().Timestamp().Logger()
}

// Setup builds the process logger from the -log_level flag value and the
// environment.  When REPL_LOG_FILE is set, logs are appended to that file
// instead of stderr; the returned close func releases it.
func Setup(flagValue string) (zerolog.Logger, func() error, error) {
	level, err := Level(flagValue)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	if filename, ok := procutil.LookupEnv(REPL_LOG_FILE); ok && filename != "" {
		f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
		}
		return New(f, level), f.Close, nil
	}
	return New(os.Stderr, level), func() error { return nil }, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
