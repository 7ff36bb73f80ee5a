// Package sysutil holds process-level helpers used by the server entrypoint.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// levelAliases covers spellings zerolog.ParseLevel does not accept.
var levelAliases = map[string]string{
	"warning": "warn",
	"":        "info",
}

// SetLogLevel sets the global zerolog level from a LOG_LEVEL-style string.
// Unknown values fall back to info so a typo never silences the process.
func SetLogLevel(lvl string) {
	s := strings.ToLower(strings.TrimSpace(lvl))
	if alias, ok := levelAliases[s]; ok {
		s = alias
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil || l == zerolog.NoLevel {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
}
