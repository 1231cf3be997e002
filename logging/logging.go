// Package logging - zerolog console logger setup.
package logging

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New creates a console logger writing to w at level.
//
// Arguments:
//   - w: The destination, usually stderr.
//   - level: A zerolog level name, case-insensitive.
//
// Returns:
//   - zerolog.Logger: The logger.
//   - error: An error if level is unknown.
func New(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("incorrect log level - %s", level)
	}

	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "02-01-2006 15:04:05.000",
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%-6s", i))
		},
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger(), nil
}

// Init sets the global logger to a console logger on w at level.
func Init(w io.Writer, level string) (zerolog.Logger, error) {
	logger, err := New(w, level)
	if err != nil {
		return logger, err
	}

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		parts := strings.Split(file, "/")
		return parts[len(parts)-1] + ":" + strconv.Itoa(line)
	}
	log.Logger = logger
	return logger, nil
}
