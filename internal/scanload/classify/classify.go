// Package classify turns a failed scan into an outcome severity, separating fault-injection noise
// and known transient conditions from genuine errors.
package classify

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/G-Research/scanload/internal/scanload/events"
)

// transientSubstrings are matched case-insensitively against the failure message.
var transientSubstrings = []string{"timed out", "unpack requires", "timeout"}

type Outcome struct {
	Severity events.Severity
	Message  string
}

// Classify returns Warning if disruption is non-empty or err looks transient, and Error otherwise.
// The message is the text of the root cause, without any context added while the error was returned,
// suffixed with the disruption id when one is running.
func Classify(err error, disruption string) Outcome {
	msg := errors.Cause(err).Error()
	if disruption != "" {
		msg = fmt.Sprintf("%s while running disruption: %s", msg, disruption)
	}
	if disruption != "" || IsTransient(err) {
		return Outcome{Severity: events.Warning, Message: msg}
	}
	return Outcome{Severity: events.Error, Message: msg}
}

func IsTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
