package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger tagged with the component name. APP_ENV=dev
// switches to the human-readable console writer, anything else logs JSON.
func New(component string) zerolog.Logger {
	var log zerolog.Logger
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log = zerolog.New(writer)
	} else {
		log = zerolog.New(os.Stdout)
	}
	return log.With().Timestamp().Str("component", component).Logger()
}
