package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger for interactive use (CLI, local server).
// GEMINI_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
func Init() {
	setLevel(os.Getenv("GEMINI_LOG_LEVEL"))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// InitJSON initializes the global logger with structured JSON output on
// stdout, which is what CloudWatch expects from a Lambda.
func InitJSON() {
	setLevel(os.Getenv("GEMINI_LOG_LEVEL"))
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// InitWriter routes logs to w. Used by the MCP server, where stdout carries
// the protocol and must stay clean.
func InitWriter(w io.Writer) {
	setLevel(os.Getenv("GEMINI_LOG_LEVEL"))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, NoColor: true})
}

func setLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
