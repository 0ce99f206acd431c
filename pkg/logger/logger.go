// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the global logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init configures the global logger. Call it once from main.
//
// level is any logrus level name ("debug", "info", ...); unknown values fall
// back to info. format "json" selects the JSON formatter, anything else the
// text formatter with full timestamps.
func Init(level, format string) {
	Configure(Log, level, format, os.Stdout)
}

// Configure applies level, format and output to log.
func Configure(log *logrus.Logger, level, format string, out io.Writer) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	log.SetOutput(out)
}
