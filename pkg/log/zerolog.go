package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	deserr "github.com/mathematixy/deslib/pkg/errors"
)

// NewWarningLogger builds a zerolog console logger for library warnings.
func NewWarningLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).With().Timestamp().Str("component", "deslib").Logger()
}

// EnableZerologWarnings routes pkg/errors warnings through a zerolog logger.
// Warning types implementing zerolog.LogObjectMarshaler (ConvergenceWarning,
// EmptyRegionWarning, ...) are emitted as structured objects, everything else
// as a plain message.
func EnableZerologWarnings(logger zerolog.Logger) {
	deserr.SetZerologWarnFunc(func(warning error) {
		ev := logger.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev.Object("warning", obj).Msg("deslib warning")
			return
		}
		ev.Err(warning).Msg("deslib warning")
	})
}
