// Package logging sets up the process-wide zerolog logger shared by every
// pipeline stage, following utils/logging.go's shape.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pborman/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. When json is true, structured
// JSON records are written to w (or os.Stderr if w is nil); otherwise a
// human-readable console writer is used. verboseCount maps repeated -v
// flags to a level: 0 = info, 1 = debug, 2+ = trace.
func Setup(verboseCount int, json bool, w io.Writer) {
	zerolog.MessageFieldName = "message"
	zerolog.LevelFieldName = "level"

	level := levelForVerbosity(verboseCount)
	runID := uuid.New()

	if json {
		if w == nil {
			w = os.Stderr
		}
		var tsHook timestampHook
		log.Logger = zerolog.New(w).Hook(&tsHook).Level(level).With().Str("run_id", runID).Logger()
		return
	}

	out := w
	if out == nil {
		out = os.Stderr
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()
}

func levelForVerbosity(n int) zerolog.Level {
	switch {
	case n <= 0:
		return zerolog.InfoLevel
	case n == 1:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// LevelOrDebug parses a named log level, defaulting to debug (and logging a
// warning) on an unrecognized name.
func LevelOrDebug(levelStr string) zerolog.Level {
	levelStr = strings.ToLower(levelStr)
	if levelStr == "warning" {
		levelStr = "warn"
	}

	var level zerolog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err == nil {
		return level
	}

	log.Warn().Msgf("unknown log level %q, defaulting to debug", levelStr)
	return zerolog.DebugLevel
}

type timestampHook struct{}

func (h *timestampHook) Run(e *zerolog.Event, l zerolog.Level, msg string) {
	e.Str("time", time.Now().Format(time.RFC3339))
}
