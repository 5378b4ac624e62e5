package graph

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/turing/pkg/domain"
)

// Overlay contains dynamic state data to visualize on the graph.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

type edge struct {
	from, to string
}

// GenerateMermaid produces a Mermaid flowchart of the transition table.
// Transitions sharing a source and a destination are drawn as one edge whose
// label stacks one "read/write,direction" line per transition.
// It applies semantic styling:
// - Initial: ((Circle))
// - Accept: (((Double Circle)))
// - Reject: {{Hexagon}}
// - Default: (Rounded)
// An initial state that is also the accept or reject state keeps that shape and
// gets the "initial" class (thick border) instead.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(def *domain.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := newIDSet()
	for _, name := range states(def) {
		opener, closer := "(", ")"
		switch name {
		case def.AcceptName():
			opener, closer = "(((", ")))"
		case def.RejectName():
			opener, closer = "{{", "}}"
		case def.InitialName():
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ids.get(name), opener, escapeLabel(name), closer)
	}

	var order []edge
	labels := make(map[edge][]string)
	for _, t := range def.Transitions() {
		e := edge{from: t.From, to: t.To}
		if _, ok := labels[e]; !ok {
			order = append(order, e)
		}
		labels[e] = append(labels[e], fmt.Sprintf("%s/%s,%s", t.Read, t.Write, t.Direction))
	}
	for _, e := range order {
		label := escapeLabel(strings.Join(labels[e], "\n"))
		label = strings.ReplaceAll(label, "\n", "<br/>")
		fmt.Fprintf(&sb, "    %s -->|\"%s\"| %s\n", ids.get(e.from), label, ids.get(e.to))
	}

	if initial := def.InitialName(); initial == def.AcceptName() || initial == def.RejectName() {
		sb.WriteString("    classDef initial stroke-width:4px;\n")
		fmt.Fprintf(&sb, "    class %s initial;\n", ids.get(initial))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.VisitedStates {
			id, ok := ids.lookup(name)
			if ok && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", id)
			}
		}
		if id, ok := ids.lookup(overlay.CurrentState); ok && overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", id)
		}
	}

	return sb.String()
}

// states lists the declared states in order, followed by states that only
// appear in transitions.
func states(def *domain.Definition) []string {
	seen := make(map[string]bool, len(def.States))
	out := make([]string, 0, len(def.States))
	for _, name := range def.States {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range def.KnownStates() {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// idSet assigns every state a unique Mermaid identifier.
type idSet struct {
	byName map[string]string
	taken  map[string]bool
}

func newIDSet() *idSet {
	return &idSet{byName: make(map[string]string), taken: make(map[string]bool)}
}

func (s *idSet) get(name string) string {
	if id, ok := s.byName[name]; ok {
		return id
	}
	base := sanitizeMermaidID(name)
	id := base
	for i := 2; s.taken[id]; i++ {
		id = fmt.Sprintf("%s_%d", base, i)
	}
	s.taken[id] = true
	s.byName[name] = id
	return id
}

func (s *idSet) lookup(name string) (string, bool) {
	id, ok := s.byName[name]
	return id, ok
}

func sanitizeMermaidID(name string) string {
	s := strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
	// "end" closes a subgraph in Mermaid.
	if s == "" || strings.EqualFold(s, "end") {
		s = "s_" + s
	}
	return s
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
