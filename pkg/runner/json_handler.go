package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/turing/pkg/domain"
)

// Event is one JSON line written by JSONHandler.
type Event struct {
	Type          domain.EventType     `json:"type"`
	Input         *string              `json:"input,omitempty"`
	Verdict       domain.Verdict       `json:"verdict,omitempty"`
	Reason        domain.HaltReason    `json:"reason,omitempty"`
	Configuration domain.Configuration `json:"configuration"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Started(_ context.Context, input string, c domain.Configuration) error {
	return h.Encoder.Encode(Event{Type: domain.EventReset, Input: &input, Configuration: c})
}

func (h *JSONHandler) Stepping(_ context.Context, c domain.Configuration) error {
	return h.Encoder.Encode(Event{Type: domain.EventStep, Configuration: c})
}

func (h *JSONHandler) Halted(_ context.Context, verdict domain.Verdict, reason domain.HaltReason, c domain.Configuration) error {
	return h.Encoder.Encode(Event{Type: domain.EventHalt, Verdict: verdict, Reason: reason, Configuration: c})
}

// Input reads one line. Both a JSON string and raw text are accepted.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	return text, nil
}
