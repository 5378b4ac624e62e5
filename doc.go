/*
Package turing simulates single-tape deterministic Turing machines.

A machine is entered as a textual description: comma-separated states and alphabet,
one "state,symbol,newState,newSymbol,direction" line per transition and the three
distinguished states. Parse validates the description into an immutable Definition;
a Simulator binds one live configuration to that definition and advances it one
transition per Tick until the machine accepts or rejects.

# Usage

	desc := domain.Description{
		States:      "q0,q1,qA,qR",
		Alphabet:    "a,b",
		Transitions: []string{"q0,a,q1,b,R", "q1,b,qA,b,R"},
		Initial:     "q0",
		Accept:      "qA",
		Reject:      "qR",
	}

	sim, err := turing.Load(desc)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	sim.Reset(ctx, "ab")
	for {
		verdict := sim.Tick(ctx)
		if verdict.Halted() {
			fmt.Println(verdict)
			break
		}
	}

The core never bounds the number of steps. Callers that run untrusted machines
impose their own ceiling (see package runner).

# Halting

Each Tick checks the accept state first, so an accepting machine never takes an
outgoing transition. A machine in its reject state, with the head off the tape,
or with no transition for the current (state, symbol) pair is rejected.
*/
package turing
