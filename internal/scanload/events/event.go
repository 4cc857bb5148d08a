// Package events defines the structured record emitted for every scan iteration and the sinks it can be published to.
package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	FullScan          Kind = "FullScanEvent"
	FullPartitionScan Kind = "FullPartitionScanReversedOrderEvent"
)

type Severity int

const (
	Normal Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ScanEvent is the outcome of one scan iteration.
type ScanEvent struct {
	EventId   string
	Timestamp time.Time
	Kind      Kind
	Node      string
	Table     string
	Severity  Severity
	Message   string
	// Skipped is set when the iteration ended before a statement was executed,
	// e.g., because the table had no partitions yet.
	Skipped  bool
	Duration time.Duration
	Rows     int64
}

func New(kind Kind, node string, table string, now time.Time) *ScanEvent {
	return &ScanEvent{
		EventId:   uuid.NewString(),
		Timestamp: now,
		Kind:      kind,
		Node:      node,
		Table:     table,
		Severity:  Normal,
	}
}

func (e *ScanEvent) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "(%s Severity.%s) event_id=%s node=%s select_from=%s", e.Kind, e.Severity, e.EventId, e.Node, e.Table)
	if e.Message != "" {
		fmt.Fprintf(&sb, " message=%s", e.Message)
	}
	return sb.String()
}
