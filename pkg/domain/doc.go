/*
Package domain contains the core domain models of the Turing machine simulator.

It defines the fundamental entities of a single-tape deterministic machine: interned
states and symbols, the transition table, the immutable Definition produced by the
descriptor parser, and the Configuration snapshots produced by the execution engine.
This package is kept pure and free of I/O or persistence concerns.

# Key Entities

  - Description: the raw, textual machine description as entered by a user.
  - Definition: the validated, immutable machine (states, alphabet, transitions, distinguished states).
  - TransitionKey / Action: one entry of the partial transition function.
  - Configuration: a value snapshot of (state, tape, head) at one instant of execution.
  - Verdict: the halting outcome reported to callers (running, accepted, rejected).
  - Session: a Configuration bound to its Description, as kept by the session layer.
*/
package domain
