package domain

import "strings"

// Verdict is the halting outcome of a run as seen by callers.
type Verdict string

const (
	VerdictRunning  Verdict = "running"
	VerdictAccepted Verdict = "accepted"
	VerdictRejected Verdict = "rejected"
)

// Halted reports whether the verdict is terminal.
func (v Verdict) Halted() bool {
	return v == VerdictAccepted || v == VerdictRejected
}

// HaltReason explains why a run stopped. It is diagnostic only: both
// out-of-bounds and no-transition surface as VerdictRejected.
type HaltReason string

const (
	HaltNone         HaltReason = ""
	HaltAcceptState  HaltReason = "accept-state"
	HaltRejectState  HaltReason = "reject-state"
	HaltOutOfBounds  HaltReason = "out-of-bounds"
	HaltNoTransition HaltReason = "no-transition"
)

// Configuration is a value snapshot of one instant of execution.
type Configuration struct {
	State string   `json:"state"`
	Tape  []string `json:"tape"`
	Head  int      `json:"head"`
	Steps int      `json:"steps"`
}

// TapeString joins the tape cells, as the trace output prints them.
func (c Configuration) TapeString() string {
	return strings.Join(c.Tape, "")
}

// Clone returns a deep copy.
func (c Configuration) Clone() Configuration {
	tape := make([]string, len(c.Tape))
	copy(tape, c.Tape)
	c.Tape = tape
	return c
}
