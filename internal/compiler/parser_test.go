package compiler_test

import (
	"testing"

	"github.com/aretw0/turing/internal/compiler"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func description(transitions ...string) domain.Description {
	return domain.Description{
		States:      "q0,q1,qA,qR",
		Alphabet:    "a,b",
		Transitions: transitions,
		Initial:     "q0",
		Accept:      "qA",
		Reject:      "qR",
	}
}

func TestParse_Valid(t *testing.T) {
	def, err := compiler.NewParser().Parse(description("q0,a,q1,b,R", "q1,b,qA,b,R"))
	require.NoError(t, err)

	assert.Equal(t, []string{"q0", "q1", "qA", "qR"}, def.States)
	assert.Equal(t, []string{"a", "b"}, def.Alphabet)
	assert.Equal(t, "q0", def.InitialName())
	assert.Equal(t, "qA", def.AcceptName())
	assert.Equal(t, "qR", def.RejectName())
	assert.Equal(t, 2, def.Len())

	q0, _ := def.StateID("q0")
	a, _ := def.SymbolID("a")
	action, ok := def.Lookup(domain.TransitionKey{State: q0, Symbol: a})
	require.True(t, ok)
	assert.Equal(t, "q1", def.StateName(action.Next))
	assert.Equal(t, "b", def.SymbolName(action.Write))
	assert.Equal(t, domain.DirectionRight, action.Move)
}

func TestParse_InitialIsFirstDeclaredState(t *testing.T) {
	tests := []struct {
		name    string
		states  string
		initial string
		want    string
	}{
		{"Matching Field", "q0,q1", "q0", "q0"},
		{"Field Ignored", "q0,q1", "q1", "q0"},
		{"Undeclared Field", "start,end", "elsewhere", "start"},
		{"Single Empty State", "", "x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := domain.Description{
				States:   tt.states,
				Alphabet: "a",
				Initial:  tt.initial,
				Accept:   "qA",
				Reject:   "qR",
			}
			def, err := compiler.NewParser().Parse(desc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.InitialName())
			assert.Equal(t, def.States[0], def.InitialName())
			assert.Equal(t, tt.initial, def.DeclaredInitial)
		})
	}
}

func TestParse_ExplicitInitial(t *testing.T) {
	desc := description()
	desc.Initial = "q1"

	def, err := compiler.NewParser(compiler.WithExplicitInitial()).Parse(desc)
	require.NoError(t, err)
	assert.Equal(t, "q1", def.InitialName())
}

func TestParse_MalformedTransition(t *testing.T) {
	lines := []string{
		"q0,a,q1",
		"q0,a,q1,b",
		"q0,a,q1,b,R,extra",
		"q0 a q1 b R",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := compiler.NewParser().Parse(description("q0,a,q1,b,R", line))
			var malformed *domain.MalformedTransitionError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, line, malformed.Line)
		})
	}
}

func TestParse_MalformedBeforeMissingState(t *testing.T) {
	desc := description("q0,a,q1")
	desc.Accept = ""

	_, err := compiler.NewParser().Parse(desc)
	var malformed *domain.MalformedTransitionError
	assert.ErrorAs(t, err, &malformed)
}

func TestParse_MissingDistinguishedState(t *testing.T) {
	for _, field := range []string{"initial", "accept", "reject"} {
		t.Run(field, func(t *testing.T) {
			desc := description()
			switch field {
			case "initial":
				desc.Initial = ""
			case "accept":
				desc.Accept = ""
			case "reject":
				desc.Reject = ""
			}

			_, err := compiler.NewParser().Parse(desc)
			require.ErrorIs(t, err, domain.ErrMissingDistinguishedState)

			var missing *domain.MissingStateError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, field, missing.Field)
		})
	}
}

func TestParse_BlankLinesSkipped(t *testing.T) {
	def, err := compiler.NewParser().Parse(description("", "q0,a,q1,b,R", "   ", ""))
	require.NoError(t, err)
	assert.Equal(t, 1, def.Len())
}

func TestParse_EmptyTable(t *testing.T) {
	def, err := compiler.NewParser().Parse(description())
	require.NoError(t, err)
	assert.Equal(t, 0, def.Len())
}

func TestParse_FieldsAreNotTrimmed(t *testing.T) {
	def, err := compiler.NewParser().Parse(description("q0, a,q1,b,R"))
	require.NoError(t, err)

	_, ok := def.SymbolID(" a")
	assert.True(t, ok, "symbol keeps its leading space")
}

func TestParse_LastDeclarationWins(t *testing.T) {
	def, err := compiler.NewParser().Parse(description(
		"q0,a,q1,b,R",
		"q0,a,qR,a,L",
	))
	require.NoError(t, err)
	require.Equal(t, 1, def.Len())

	transitions := def.Transitions()
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.Transition{From: "q0", Read: "a", To: "qR", Write: "a", Direction: "L"}, transitions[0])
}

func TestParse_UnknownDirection(t *testing.T) {
	t.Run("Lenient", func(t *testing.T) {
		def, err := compiler.NewParser().Parse(description("q0,a,q1,b,S"))
		require.NoError(t, err)

		q0, _ := def.StateID("q0")
		a, _ := def.SymbolID("a")
		action, ok := def.Lookup(domain.TransitionKey{State: q0, Symbol: a})
		require.True(t, ok)
		assert.Equal(t, domain.DirectionNone, action.Move)
		assert.Equal(t, "S", action.RawMove)
	})

	t.Run("Strict", func(t *testing.T) {
		_, err := compiler.NewParser(compiler.WithStrictDirections()).Parse(description("q0,a,q1,b,S"))
		var invalid *domain.InvalidDirectionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "S", invalid.Direction)
		assert.Equal(t, "q0,a,q1,b,S", invalid.Line)
	})
}

func TestParse_UndeclaredReferencesAccepted(t *testing.T) {
	def, err := compiler.NewParser().Parse(description("ghost,z,other,y,R"))
	require.NoError(t, err)

	_, ok := def.StateID("ghost")
	assert.True(t, ok)
	_, ok = def.SymbolID("z")
	assert.True(t, ok)
}

func TestCompile_EmptyLists(t *testing.T) {
	p := compiler.NewParser()

	_, err := p.Compile(domain.Source{Alphabet: []string{"a"}, Initial: "q", Accept: "q", Reject: "q"})
	assert.ErrorIs(t, err, domain.ErrEmptyStates)

	_, err = p.Compile(domain.Source{States: []string{"q"}, Initial: "q", Accept: "q", Reject: "q"})
	assert.ErrorIs(t, err, domain.ErrEmptyAlphabet)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, compiler.SplitLines("  \n\n "))
	assert.Equal(t,
		[]string{"q0,a,q1,b,R", "", "q1,b,qA,b,R"},
		compiler.SplitLines("\nq0,a,q1,b,R\r\n\nq1,b,qA,b,R\n\n"),
	)
}
