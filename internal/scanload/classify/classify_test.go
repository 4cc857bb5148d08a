package classify

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/G-Research/scanload/internal/scanload/events"
)

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		err             error
		disruption      string
		expectedOutcome Outcome
	}{
		"timeout during disruption": {
			err:        errors.New("Operation timed out for ks.cf - received only 0 responses"),
			disruption: "disrupt_stop_start_node",
			expectedOutcome: Outcome{
				Severity: events.Warning,
				Message:  "Operation timed out for ks.cf - received only 0 responses while running disruption: disrupt_stop_start_node",
			},
		},
		"hard error during disruption": {
			err:        errors.New("server error: unavailable"),
			disruption: "disrupt_kill_node",
			expectedOutcome: Outcome{
				Severity: events.Warning,
				Message:  "server error: unavailable while running disruption: disrupt_kill_node",
			},
		},
		"timeout without disruption": {
			err:             errors.New("ReadTimeout: coordinator node timed out"),
			expectedOutcome: Outcome{Severity: events.Warning, Message: "ReadTimeout: coordinator node timed out"},
		},
		"upper case timeout": {
			err:             errors.New("TIMEOUT waiting for page"),
			expectedOutcome: Outcome{Severity: events.Warning, Message: "TIMEOUT waiting for page"},
		},
		"protocol desync": {
			err:             errors.New("unpack requires a buffer of 4 bytes"),
			expectedOutcome: Outcome{Severity: events.Warning, Message: "unpack requires a buffer of 4 bytes"},
		},
		"wrapped error reports root cause": {
			err: errors.WithMessage(
				errors.WithMessagef(errors.New("Operation timed out for ks.cf"), "failed fetching page %d", 3),
				"failed executing full scan"),
			expectedOutcome: Outcome{Severity: events.Warning, Message: "Operation timed out for ks.cf"},
		},
		"wrapped error during disruption": {
			err:        errors.WithMessagef(errors.New("connection refused"), "failed to open session on node %s", "node-1"),
			disruption: "disrupt_kill_node",
			expectedOutcome: Outcome{
				Severity: events.Warning,
				Message:  "connection refused while running disruption: disrupt_kill_node",
			},
		},
		"genuine error": {
			err:             errors.New("invalid column name ck"),
			expectedOutcome: Outcome{Severity: events.Error, Message: "invalid column name ck"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expectedOutcome, Classify(tc.err, tc.disruption))
		})
	}
}

func TestIsTransient_WrappedError(t *testing.T) {
	err := errors.WithMessage(errors.New("request timeout"), "failed to fetch page")
	assert.True(t, IsTransient(err))
	assert.False(t, IsTransient(errors.New("syntax error")))
}
