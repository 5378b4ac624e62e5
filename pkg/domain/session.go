package domain

import "time"

// Session is a live simulation as kept by the session layer: the description it
// was started from, the input it was seeded with, and its latest configuration.
type Session struct {
	ID            string        `json:"id"`
	Description   Description   `json:"description"`
	Input         string        `json:"input"`
	Configuration Configuration `json:"configuration"`
	Verdict       Verdict       `json:"verdict"`
	Reason        HaltReason    `json:"reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Description.Transitions = append([]string(nil), s.Description.Transitions...)
	c.Configuration = s.Configuration.Clone()
	return &c
}
