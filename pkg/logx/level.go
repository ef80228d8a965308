package logx

import (
	"strings"

	"github.com/rs/zerolog"
)

// ParseLevel maps LOG_LEVEL style names (INFO, debug, Warning, ...) to a
// zerolog level. Unknown names yield def.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE", "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR", "CRITICAL", "FATAL":
		return zerolog.ErrorLevel
	default:
		return def
	}
}
