package dsl

import (
	"strings"

	"github.com/aretw0/turing/internal/compiler"
	"github.com/aretw0/turing/pkg/domain"
)

// Builder accumulates a machine definition.
type Builder struct {
	src   domain.Source
	rules []*RuleBuilder
}

// New creates an empty machine builder.
func New() *Builder {
	return &Builder{}
}

// States appends state labels. The first state ever added is the initial state
// unless Initial is set and the definition is built with compiler.WithExplicitInitial.
func (b *Builder) States(names ...string) *Builder {
	b.src.States = append(b.src.States, names...)
	return b
}

// Alphabet appends input symbols.
func (b *Builder) Alphabet(symbols ...string) *Builder {
	b.src.Alphabet = append(b.src.Alphabet, symbols...)
	return b
}

// Initial records the declared initial state. When unset, the first state is used.
func (b *Builder) Initial(state string) *Builder {
	b.src.Initial = state
	return b
}

// Accept sets the accept state.
func (b *Builder) Accept(state string) *Builder {
	b.src.Accept = state
	return b
}

// Reject sets the reject state.
func (b *Builder) Reject(state string) *Builder {
	b.src.Reject = state
	return b
}

// On starts a transition for (state, symbol). By default the symbol read is
// written back, the head does not move and the machine stays in state.
func (b *Builder) On(state, symbol string) *RuleBuilder {
	r := &RuleBuilder{from: state, read: symbol, to: state, write: symbol, move: stay}
	b.rules = append(b.rules, r)
	return r
}

// Source returns the pre-split description.
func (b *Builder) Source() domain.Source {
	src := b.src
	if src.Initial == "" && len(src.States) > 0 {
		src.Initial = src.States[0]
	}
	src.States = append([]string(nil), b.src.States...)
	src.Alphabet = append([]string(nil), b.src.Alphabet...)
	src.Transitions = make([][]string, 0, len(b.rules))
	for _, r := range b.rules {
		src.Transitions = append(src.Transitions, r.fields())
	}
	return src
}

// Description renders the machine in its textual form, suitable for storage or
// for any loader that accepts descriptions.
func (b *Builder) Description() domain.Description {
	src := b.Source()
	lines := make([]string, 0, len(src.Transitions))
	for _, f := range src.Transitions {
		lines = append(lines, strings.Join(f, ","))
	}
	return domain.Description{
		States:      strings.Join(src.States, ","),
		Alphabet:    strings.Join(src.Alphabet, ","),
		Transitions: lines,
		Initial:     src.Initial,
		Accept:      src.Accept,
		Reject:      src.Reject,
	}
}

// Build validates the machine.
func (b *Builder) Build(opts ...compiler.Option) (*domain.Definition, error) {
	return compiler.NewParser(opts...).Compile(b.Source())
}

// stay is rendered for transitions that keep the head in place. Strict
// direction checking rejects it.
const stay = "S"

// RuleBuilder configures one transition.
type RuleBuilder struct {
	from, read string
	to, write  string
	move       string
}

// Write sets the symbol written under the head.
func (r *RuleBuilder) Write(symbol string) *RuleBuilder {
	r.write = symbol
	return r
}

// Left moves the head one cell left.
func (r *RuleBuilder) Left() *RuleBuilder {
	r.move = domain.DirectionLeft.String()
	return r
}

// Right moves the head one cell right.
func (r *RuleBuilder) Right() *RuleBuilder {
	r.move = domain.DirectionRight.String()
	return r
}

// Stay keeps the head in place.
func (r *RuleBuilder) Stay() *RuleBuilder {
	r.move = stay
	return r
}

// To sets the next state.
func (r *RuleBuilder) To(state string) *RuleBuilder {
	r.to = state
	return r
}

func (r *RuleBuilder) fields() []string {
	return []string{r.from, r.read, r.to, r.write, r.move}
}
