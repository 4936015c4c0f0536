// Package logging configures apex/log for the pipeline binaries.
package logging

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// SetupLambda routes logs to stdout as one JSON document per line, the
// shape CloudWatch Logs indexes field-by-field.
func SetupLambda(level string) {
	log.SetHandler(json.New(os.Stdout))
	log.SetLevel(parseLevel(level))
}

// SetupCLI routes human-readable logs to stderr so command output on
// stdout stays pipeable.
func SetupCLI(level string) {
	log.SetHandler(text.New(os.Stderr))
	log.SetLevel(parseLevel(level))
}

func parseLevel(level string) log.Level {
	l, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel
	}
	return l
}
