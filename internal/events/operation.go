package events

import "time"

// OperationStart is emitted before a composed operation handler runs.
type OperationStart struct {
	Kind      string
	Operation string
}

// OperationFinish is emitted after a composed operation handler returns.
// Outcome is one of "ok", "short_circuit" or "error".
type OperationFinish struct {
	Kind      string
	Operation string
	Outcome   string
	Err       error
	Duration  time.Duration
}

// Outcomes reported by OperationFinish.
const (
	OutcomeOK           = "ok"
	OutcomeShortCircuit = "short_circuit"
	OutcomeError        = "error"
)
