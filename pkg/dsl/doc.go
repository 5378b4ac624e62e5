/*
Package dsl provides a Go DSL for programmatically constructing Turing machines.

It is an alternative to the textual description: states, symbols and transitions
are declared with a fluent builder, and the result is validated by the same
rules the descriptor parser applies.

Example usage:

	m := dsl.New().
		States("q0", "q1", "qA", "qR").
		Alphabet("a", "b").
		Accept("qA").
		Reject("qR")

	m.On("q0", "a").Write("b").Right().To("q1")
	m.On("q1", "b").Right().To("qA")

	def, err := m.Build()
	if err != nil {
		log.Fatal(err)
	}

	sim := turing.New(def)
*/
package dsl
