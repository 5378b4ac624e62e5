package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/turing/pkg/domain"
)

// TextHandler prints the classic trace: one line for the seeded tape, one line
// per step request and the verdict.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	done      chan struct{}
	pumpDone  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer applied to the verdict line.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:   bufio.NewReader(r),
		Writer:   w,
		done:     make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Started(_ context.Context, _ string, c domain.Configuration) error {
	_, err := fmt.Fprintf(h.Writer, "Initial State: %s, Tape: %s, Head: %d\n", c.State, c.TapeString(), c.Head)
	return err
}

func (h *TextHandler) Stepping(_ context.Context, c domain.Configuration) error {
	_, err := fmt.Fprintf(h.Writer, "State: %s, Tape: %s, Head: %d\n", c.State, c.TapeString(), c.Head)
	return err
}

func (h *TextHandler) Halted(_ context.Context, verdict domain.Verdict, _ domain.HaltReason, _ domain.Configuration) error {
	line := "Rejected"
	if verdict == domain.VerdictAccepted {
		line = "Accepted"
	}
	if h.Renderer != nil {
		if rendered, err := h.Renderer(line); err == nil {
			line = strings.TrimSpace(rendered)
		}
	}
	_, err := fmt.Fprintln(h.Writer, line)
	return err
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult, 1)
		go h.pump()
	})
}

// Stop releases the reader goroutine. A line read after Stop is dropped.
func (h *TextHandler) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *TextHandler) pump() {
	defer close(h.pumpDone)
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" && !h.send(inputResult{text: text}) {
			return
		}
		if err != nil {
			if err != io.EOF {
				h.send(inputResult{err: err})
			}
			return
		}
	}
}

func (h *TextHandler) send(res inputResult) bool {
	select {
	case h.inputChan <- res:
		return true
	case <-h.done:
		return false
	}
}

// Input prompts for the next step. An empty line steps once.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		fmt.Fprint(h.Writer, "> ")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.ToLower(strings.TrimSpace(res.text)), nil
	}
}
