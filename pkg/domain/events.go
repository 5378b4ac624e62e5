package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventReset EventType = "reset"
	EventStep  EventType = "step"
	EventHalt  EventType = "halt"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ResetEvent is emitted when an engine is seeded with a new input.
type ResetEvent struct {
	EventBase
	Input         string        `json:"input"`
	Configuration Configuration `json:"configuration"`
}

// StepEvent is emitted after a transition was taken.
type StepEvent struct {
	EventBase
	From          string        `json:"from"`
	Read          string        `json:"read"`
	Configuration Configuration `json:"configuration"`
}

// HaltEvent is emitted once when a run reaches a verdict.
type HaltEvent struct {
	EventBase
	Verdict       Verdict       `json:"verdict"`
	Reason        HaltReason    `json:"reason"`
	Configuration Configuration `json:"configuration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnReset func(context.Context, *ResetEvent)
	OnStep  func(context.Context, *StepEvent)
	OnHalt  func(context.Context, *HaltEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnReset: chain(h.OnReset, other.OnReset),
		OnStep:  chain(h.OnStep, other.OnStep),
		OnHalt:  chain(h.OnHalt, other.OnHalt),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
