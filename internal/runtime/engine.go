package runtime

import (
	"fmt"

	"github.com/aretw0/turing/pkg/domain"
)

// Engine holds the live configuration of one machine instance and advances it
// one transition at a time. It is not safe for concurrent use.
type Engine struct {
	def *domain.Definition

	state domain.StateID
	tape  []domain.SymbolID
	head  int
	steps int

	// foreign interns symbols met on the tape that the definition never declared.
	// Their identifiers start at def.NumSymbols() and never match a table key.
	foreign     map[string]domain.SymbolID
	foreignName []string

	lastHalt domain.HaltReason
}

// NewEngine binds an engine to a definition. The engine starts with an empty tape
// in the initial state, as if Reset("") had been called.
func NewEngine(def *domain.Definition) *Engine {
	e := &Engine{def: def}
	e.Reset("")
	return e
}

// Definition returns the machine the engine executes.
func (e *Engine) Definition() *domain.Definition {
	return e.def
}

// Reset seeds the tape with the characters of input, moves the head to cell 0
// and returns to the initial state. Characters outside the alphabet are accepted.
func (e *Engine) Reset(input string) {
	e.tape = e.tape[:0]
	for _, r := range input {
		e.tape = append(e.tape, e.symbol(string(r)))
	}
	e.head = 0
	e.steps = 0
	e.state = e.def.Initial
	e.lastHalt = domain.HaltNone
}

// Step executes one transition. It returns false, leaving the configuration
// untouched, when the head is off the tape or no transition is defined.
func (e *Engine) Step() bool {
	if e.head < 0 || e.head >= len(e.tape) {
		e.lastHalt = domain.HaltOutOfBounds
		return false
	}

	action, ok := e.def.Lookup(domain.TransitionKey{State: e.state, Symbol: e.tape[e.head]})
	if !ok {
		e.lastHalt = domain.HaltNoTransition
		return false
	}

	e.tape[e.head] = action.Write
	e.state = action.Next
	e.head += action.Move.Delta()
	e.steps++
	return true
}

// IsAccepting reports whether the current state is the accept state.
func (e *Engine) IsAccepting() bool {
	return e.state == e.def.Accept
}

// IsRejecting reports whether the current state is the reject state.
func (e *Engine) IsRejecting() bool {
	return e.state == e.def.Reject
}

// Tick applies the halting policy for one step request. Acceptance is checked
// before attempting a transition, so an accept state with an outgoing transition
// still accepts. Rejection is the reject state or a failed Step.
func (e *Engine) Tick() (domain.Verdict, domain.HaltReason) {
	if e.IsAccepting() {
		return domain.VerdictAccepted, domain.HaltAcceptState
	}
	if e.IsRejecting() {
		return domain.VerdictRejected, domain.HaltRejectState
	}
	if !e.Step() {
		return domain.VerdictRejected, e.lastHalt
	}
	return domain.VerdictRunning, domain.HaltNone
}

// CurrentState returns the label of the current state.
func (e *Engine) CurrentState() string {
	return e.def.StateName(e.state)
}

// Head returns the head position. It may be negative or past the end of the tape.
func (e *Engine) Head() int {
	return e.head
}

// Steps returns the number of transitions taken since the last reset.
func (e *Engine) Steps() int {
	return e.steps
}

// Tape returns a copy of the tape contents.
func (e *Engine) Tape() []string {
	out := make([]string, len(e.tape))
	for i, id := range e.tape {
		out[i] = e.symbolName(id)
	}
	return out
}

// Symbol returns the symbol under the head, or false when the head is off the tape.
func (e *Engine) Symbol() (string, bool) {
	if e.head < 0 || e.head >= len(e.tape) {
		return "", false
	}
	return e.symbolName(e.tape[e.head]), true
}

// Snapshot returns a value copy of the current configuration.
func (e *Engine) Snapshot() domain.Configuration {
	return domain.Configuration{
		State: e.CurrentState(),
		Tape:  e.Tape(),
		Head:  e.head,
		Steps: e.steps,
	}
}

// Restore reinstates a configuration produced by Snapshot, possibly by another
// engine bound to an equivalent definition.
func (e *Engine) Restore(c domain.Configuration) error {
	state, ok := e.def.StateID(c.State)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownState, c.State)
	}
	e.state = state
	e.tape = e.tape[:0]
	for _, cell := range c.Tape {
		e.tape = append(e.tape, e.symbol(cell))
	}
	e.head = c.Head
	e.steps = c.Steps
	e.lastHalt = domain.HaltNone
	return nil
}

func (e *Engine) symbol(s string) domain.SymbolID {
	if id, ok := e.def.SymbolID(s); ok {
		return id
	}
	if id, ok := e.foreign[s]; ok {
		return id
	}
	if e.foreign == nil {
		e.foreign = make(map[string]domain.SymbolID)
	}
	id := domain.SymbolID(e.def.NumSymbols() + len(e.foreignName))
	e.foreign[s] = id
	e.foreignName = append(e.foreignName, s)
	return id
}

func (e *Engine) symbolName(id domain.SymbolID) string {
	if n := e.def.NumSymbols(); int(id) >= n {
		return e.foreignName[int(id)-n]
	}
	return e.def.SymbolName(id)
}
