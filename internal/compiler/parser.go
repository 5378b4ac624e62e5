package compiler

import (
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

// Parser is responsible for converting a raw description into a Definition.
type Parser struct {
	strictDirections bool
	explicitInitial  bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithStrictDirections rejects direction tokens other than "L" and "R" with
// *domain.InvalidDirectionError instead of accepting them as no-op moves.
func WithStrictDirections() Option {
	return func(p *Parser) {
		p.strictDirections = true
	}
}

// WithExplicitInitial makes the engine start in the declared initial field
// instead of the first declared state. This changes observable runs.
func WithExplicitInitial() Option {
	return func(p *Parser) {
		p.explicitInitial = true
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse validates a raw description and builds its Definition.
// Lists are split on commas without trimming; blank transition lines are skipped.
func (p *Parser) Parse(desc domain.Description) (*domain.Definition, error) {
	src := domain.Source{
		States:   strings.Split(desc.States, ","),
		Alphabet: strings.Split(desc.Alphabet, ","),
		Initial:  desc.Initial,
		Accept:   desc.Accept,
		Reject:   desc.Reject,
	}

	for _, line := range desc.Transitions {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 5 {
			return nil, &domain.MalformedTransitionError{Line: line}
		}
		src.Transitions = append(src.Transitions, parts)
	}

	return p.compile(src)
}

// Compile validates pre-split lists. Transition rows must have five fields.
func (p *Parser) Compile(src domain.Source) (*domain.Definition, error) {
	return p.compile(src)
}

func (p *Parser) compile(src domain.Source) (*domain.Definition, error) {
	if len(src.States) == 0 {
		return nil, domain.ErrEmptyStates
	}
	if len(src.Alphabet) == 0 {
		return nil, domain.ErrEmptyAlphabet
	}

	def := domain.NewDefinition()
	def.States = append([]string(nil), src.States...)
	def.Alphabet = append([]string(nil), src.Alphabet...)
	for _, s := range src.States {
		def.InternState(s)
	}
	for _, sym := range src.Alphabet {
		def.InternSymbol(sym)
	}

	for _, row := range src.Transitions {
		line := strings.Join(row, ",")
		if len(row) != 5 {
			return nil, &domain.MalformedTransitionError{Line: line}
		}

		move, known := domain.ParseDirection(row[4])
		if !known && p.strictDirections {
			return nil, &domain.InvalidDirectionError{Line: line, Direction: row[4]}
		}

		key := domain.TransitionKey{
			State:  def.InternState(row[0]),
			Symbol: def.InternSymbol(row[1]),
		}
		def.Set(key, domain.Action{
			Next:    def.InternState(row[2]),
			Write:   def.InternSymbol(row[3]),
			Move:    move,
			RawMove: row[4],
		})
	}

	if err := requireStates(src); err != nil {
		return nil, err
	}

	def.DeclaredInitial = src.Initial
	def.Initial = def.InternState(src.States[0])
	if p.explicitInitial {
		def.Initial = def.InternState(src.Initial)
	}
	def.Accept = def.InternState(src.Accept)
	def.Reject = def.InternState(src.Reject)

	return def, nil
}

func requireStates(src domain.Source) error {
	switch {
	case src.Initial == "":
		return &domain.MissingStateError{Field: "initial"}
	case src.Accept == "":
		return &domain.MissingStateError{Field: "accept"}
	case src.Reject == "":
		return &domain.MissingStateError{Field: "reject"}
	}
	return nil
}

// SplitLines turns a transitions text block into lines. The block is trimmed first,
// so leading and trailing blank lines disappear; a trailing "\r" is dropped per line.
func SplitLines(block string) []string {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil
	}
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
