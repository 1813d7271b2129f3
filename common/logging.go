// Package common provides the shared logging infrastructure for the
// knowledge-graph pipeline. Every subsystem (ingestion, normalization,
// the graph store, the NLQ engine, the reasoner, temporal analytics)
// logs through the same logrus instance so that one process emits one
// uniformly structured stream.
//
// Error-level lines are routed to stderr and everything else to stdout,
// so shell pipelines and container log collectors can treat the two
// streams differently without parsing levels back out of the text.
package common

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes formatted log lines by severity: lines carrying
// logrus's error-level marker go to stderr, everything else to stdout.
// It operates on the final formatted output, so it works with both the
// text and JSON formatters.
type OutputSplitter struct{}

// Write implements io.Writer. The check is a plain byte scan rather than
// a parse: the text formatter writes level=error and the JSON formatter
// writes "level":"error", and both markers are checked.
func (splitter *OutputSplitter) Write(p []byte) (n int, err error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the process-wide logger every subsystem logs through.
// Subsystems wrap it via ServiceLogger rather than using it directly so
// each line carries its origin fields.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(&OutputSplitter{})
	Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Configure applies the CLI-selected level and format to the global
// logger. Unknown values fall back to info/text rather than erroring,
// since a typo in a config file should not make the process unloggable.
func Configure(level, format string) {
	switch level {
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "warn":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	default:
		Logger.SetLevel(logrus.InfoLevel)
	}

	if format == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
