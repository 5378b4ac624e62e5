package domain

import "sort"

// Definition is the validated, immutable description of a machine.
// It is built once by the descriptor parser and shared read-only by engines.
type Definition struct {
	// States holds the declared state labels in declaration order.
	States []string
	// Alphabet holds the declared symbols in declaration order.
	Alphabet []string

	// Initial is the state the engine resets into.
	Initial StateID
	Accept  StateID
	Reject  StateID

	// DeclaredInitial is the raw "initial" field as entered.
	DeclaredInitial string

	stateNames  []string
	stateIndex  map[string]StateID
	symbolNames []string
	symbolIndex map[string]SymbolID
	table       map[TransitionKey]Action
	order       []TransitionKey
}

// NewDefinition returns an empty definition ready to be populated by a builder.
func NewDefinition() *Definition {
	return &Definition{
		stateIndex:  make(map[string]StateID),
		symbolIndex: make(map[string]SymbolID),
		table:       make(map[TransitionKey]Action),
	}
}

// InternState returns the identifier for a state label, allocating one if needed.
func (d *Definition) InternState(name string) StateID {
	if id, ok := d.stateIndex[name]; ok {
		return id
	}
	id := StateID(len(d.stateNames))
	d.stateNames = append(d.stateNames, name)
	d.stateIndex[name] = id
	return id
}

// InternSymbol returns the identifier for a symbol, allocating one if needed.
func (d *Definition) InternSymbol(symbol string) SymbolID {
	if id, ok := d.symbolIndex[symbol]; ok {
		return id
	}
	id := SymbolID(len(d.symbolNames))
	d.symbolNames = append(d.symbolNames, symbol)
	d.symbolIndex[symbol] = id
	return id
}

// Set records a transition. A later Set for the same key replaces the earlier action.
func (d *Definition) Set(key TransitionKey, action Action) {
	if _, exists := d.table[key]; !exists {
		d.order = append(d.order, key)
	}
	d.table[key] = action
}

// Lookup returns the action for a (state, symbol) pair.
func (d *Definition) Lookup(key TransitionKey) (Action, bool) {
	a, ok := d.table[key]
	return a, ok
}

// StateID resolves a label without allocating.
func (d *Definition) StateID(name string) (StateID, bool) {
	id, ok := d.stateIndex[name]
	return id, ok
}

// SymbolID resolves a symbol without allocating.
func (d *Definition) SymbolID(symbol string) (SymbolID, bool) {
	id, ok := d.symbolIndex[symbol]
	return id, ok
}

// StateName returns the label of an interned state.
func (d *Definition) StateName(id StateID) string {
	if int(id) < 0 || int(id) >= len(d.stateNames) {
		return ""
	}
	return d.stateNames[id]
}

// SymbolName returns the text of an interned symbol.
func (d *Definition) SymbolName(id SymbolID) string {
	if int(id) < 0 || int(id) >= len(d.symbolNames) {
		return ""
	}
	return d.symbolNames[id]
}

// NumSymbols is the number of interned symbols. Identifiers at or above it are never
// keys of the table.
func (d *Definition) NumSymbols() int {
	return len(d.symbolNames)
}

// Len returns the number of entries in the transition table.
func (d *Definition) Len() int {
	return len(d.table)
}

// InitialName, AcceptName and RejectName return the labels of the distinguished states.
func (d *Definition) InitialName() string { return d.StateName(d.Initial) }
func (d *Definition) AcceptName() string  { return d.StateName(d.Accept) }
func (d *Definition) RejectName() string  { return d.StateName(d.Reject) }

// Transitions lists the table in first-declaration order of each key.
func (d *Definition) Transitions() []Transition {
	out := make([]Transition, 0, len(d.order))
	for _, key := range d.order {
		a := d.table[key]
		out = append(out, Transition{
			From:      d.StateName(key.State),
			Read:      d.SymbolName(key.Symbol),
			To:        d.StateName(a.Next),
			Write:     d.SymbolName(a.Write),
			Direction: a.RawMove,
		})
	}
	return out
}

// KnownStates returns every interned label (declared or referenced), sorted.
func (d *Definition) KnownStates() []string {
	names := append([]string(nil), d.stateNames...)
	sort.Strings(names)
	return names
}
