package hotbench

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	nameToLevels = map[string]zerolog.Level{
		"verbose": zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"quiet":   zerolog.Disabled,
	}
)

var (
	logger atomic.Pointer[zerolog.Logger]
)

func init() {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel).With().Timestamp().Logger()
	logger.Store(&l)
}

// ParseLogLevel maps a level name (verbose, debug, info, warn, error, quiet)
// to the zerolog level.
func ParseLogLevel(name string) (zerolog.Level, error) {
	level, ok := nameToLevels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return zerolog.NoLevel, fmt.Errorf("%w %s: unknown log level %q",
			ErrInvalidProperty, PropertyLogLevel, name)
	}
	return level, nil
}

// SetupLogger replaces the package logger. With console set the output is
// human readable, otherwise one JSON object per line.
func SetupLogger(level string, console bool, out io.Writer) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	if out == nil {
		out = os.Stderr
	}
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	logger.Store(&l)
	return nil
}

// Logger returns the package logger.
func Logger() *zerolog.Logger {
	return logger.Load()
}

func Errorf(format string, args ...interface{}) {
	Logger().Error().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger().Warn().Msgf(format, args...)
}

func Infof(format string, args ...interface{}) {
	Logger().Info().Msgf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger().Debug().Msgf(format, args...)
}

func Fprintf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format, args...)
	fmt.Fprintln(w, "")
}
