package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. format "text" selects a human readable console writer.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if strings.EqualFold(format, "text") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Sink writes extraction engine events to a zerolog logger.
type Sink struct {
	log zerolog.Logger
}

func NewSink(log zerolog.Logger) *Sink {
	return &Sink{log: log.With().Str("component", "extraction").Logger()}
}

func (s *Sink) Record(event string, fields map[string]any) {
	ev := s.log.Debug()
	switch event {
	case "rule_fault", "template_panic":
		ev = s.log.Warn()
	case "unresolved":
		ev = s.log.Info()
	}
	ev.Fields(fields).Msg(event)
}
