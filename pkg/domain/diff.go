package domain

// ConfigurationDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type ConfigurationDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	State *string `json:"state,omitempty"`
	Head  *int    `json:"head,omitempty"`

	// Cells maps tape positions to the symbol now stored there.
	Cells map[int]string `json:"cells,omitempty"`

	// Tape is set instead of Cells when the tape was replaced (reset or first load).
	Tape []string `json:"tape,omitempty"`

	Steps   *int     `json:"steps,omitempty"`
	Verdict *Verdict `json:"verdict,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *ConfigurationDiff {
	if newSession == nil {
		return nil
	}

	diff := &ConfigurationDiff{SessionID: newSession.ID}
	next := newSession.Configuration

	if oldSession == nil {
		diff.State = &next.State
		diff.Head = &next.Head
		diff.Steps = &next.Steps
		diff.Verdict = &newSession.Verdict
		diff.Tape = nonNil(next.Tape)
		return diff
	}

	prev := oldSession.Configuration
	if prev.State != next.State {
		diff.State = &next.State
	}
	if prev.Head != next.Head {
		diff.Head = &next.Head
	}
	if prev.Steps != next.Steps {
		diff.Steps = &next.Steps
	}
	if oldSession.Verdict != newSession.Verdict {
		diff.Verdict = &newSession.Verdict
	}

	if len(prev.Tape) != len(next.Tape) || oldSession.Input != newSession.Input {
		diff.Tape = nonNil(next.Tape)
	} else {
		diff.Cells = diffCells(prev.Tape, next.Tape)
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffCells(old, new []string) map[int]string {
	var delta map[int]string
	for i := range new {
		if old[i] != new[i] {
			if delta == nil {
				delta = make(map[int]string)
			}
			delta[i] = new[i]
		}
	}
	return delta
}

func nonNil(tape []string) []string {
	if tape == nil {
		return []string{}
	}
	return tape
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ConfigurationDiff) IsEmpty() bool {
	return d.State == nil &&
		d.Head == nil &&
		d.Steps == nil &&
		d.Verdict == nil &&
		len(d.Cells) == 0 &&
		d.Tape == nil
}
