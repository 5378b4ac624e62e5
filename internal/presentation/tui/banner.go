package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`  _              _`, "#818cf8"},
	{` | |_ _  _ _ _ (_)_ _  __ _`, "#a78bfa"},
	{` |  _| || | '_|| | ' \/ _` + "`" + ` |`, "#c084fc"},
	{`  \__|\_,_|_|  |_|_||_\__, |`, "#e879f9"},
	{`                      |___/`, "#f472b6"},
}

// PrintBanner writes the ASCII art banner to w, coloured when w supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)

	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	}
	fmt.Fprintln(w)
}

// NewVerdictRenderer colours the "Accepted" and "Rejected" trace lines for w.
// Other text passes through untouched.
func NewVerdictRenderer(w io.Writer) func(string) (string, error) {
	out := termenv.NewOutput(w)
	return func(line string) (string, error) {
		switch line {
		case "Accepted":
			return out.String(line).Foreground(out.Color("#22c55e")).Bold().String(), nil
		case "Rejected":
			return out.String(line).Foreground(out.Color("#ef4444")).Bold().String(), nil
		}
		return line, nil
	}
}
