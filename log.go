package stagecraft

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// newLogger creates the game logger. An unknown level string keeps the
// default info level.
func newLogger(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "stagecraft",
	})
	if level != "" {
		if lvl, err := log.ParseLevel(level); err == nil {
			logger.SetLevel(lvl)
		}
	}
	return logger
}

// discardLogger is used by services constructed without a game.
func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
