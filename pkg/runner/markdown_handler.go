package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

// MarkdownHandler collects the trace into a Markdown table and writes it once the
// machine halts, passed through Renderer when one is set.
// It does not support interactive stepping.
type MarkdownHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer

	title string
	rows  strings.Builder
	last  int
}

// NewMarkdownHandler creates a handler that renders the run as a document titled title.
func NewMarkdownHandler(w io.Writer, title string, renderer ContentRenderer) *MarkdownHandler {
	if w == nil {
		w = os.Stdout
	}
	return &MarkdownHandler{Writer: w, Renderer: renderer, title: title}
}

func (h *MarkdownHandler) Started(_ context.Context, input string, c domain.Configuration) error {
	h.rows.Reset()
	h.last = -1
	h.row(c)
	return nil
}

func (h *MarkdownHandler) Stepping(_ context.Context, c domain.Configuration) error {
	h.row(c)
	return nil
}

func (h *MarkdownHandler) Halted(_ context.Context, verdict domain.Verdict, reason domain.HaltReason, c domain.Configuration) error {
	h.row(c)

	var doc strings.Builder
	if h.title != "" {
		fmt.Fprintf(&doc, "# %s\n\n", h.title)
	}
	doc.WriteString("| Step | State | Tape | Head |\n|---:|---|---|---:|\n")
	doc.WriteString(h.rows.String())
	fmt.Fprintf(&doc, "\n**%s**", titleCase(string(verdict)))
	if reason != domain.HaltNone {
		fmt.Fprintf(&doc, " (%s)", reason)
	}
	doc.WriteString("\n")

	out := doc.String()
	if h.Renderer != nil {
		rendered, err := h.Renderer(out)
		if err != nil {
			return err
		}
		out = rendered
	}
	_, err := io.WriteString(h.Writer, out)
	return err
}

func (h *MarkdownHandler) Input(context.Context) (string, error) {
	return "", fmt.Errorf("markdown output does not support interactive stepping")
}

// row records c unless a row for the same step count was already written.
func (h *MarkdownHandler) row(c domain.Configuration) {
	if c.Steps == h.last {
		return
	}
	h.last = c.Steps
	fmt.Fprintf(&h.rows, "| %d | %s | %s | %d |\n", c.Steps, escapeCell(c.State), escapeCell(highlight(c)), c.Head)
}

// highlight marks the cell under the head in bold.
func highlight(c domain.Configuration) string {
	if c.Head < 0 || c.Head >= len(c.Tape) {
		return c.TapeString()
	}
	var b strings.Builder
	for i, cell := range c.Tape {
		if i == c.Head {
			b.WriteString("**" + cell + "**")
			continue
		}
		b.WriteString(cell)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
