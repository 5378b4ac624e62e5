package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/cli"
	"github.com/aretw0/turing/internal/config"
	"github.com/aretw0/turing/internal/logging"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flipYAML = `
states: q0,q1,qA,qR
alphabet: a,b
transitions:
  - q0,a,q1,b,R
  - q1,b,qA,b,R
initial: q0
accept: qA
reject: qR
input: ab
`

const loopYAML = `
states: q0,qA,qR
alphabet: a
transitions:
  - q0,a,q0,a,S
initial: q0
accept: qA
reject: qR
`

const flipMarkdown = `---
states: q0,q1,qA,qR
alphabet: a,b
initial: q0
accept: qA
reject: qR
input: ab
---
q0,a,q1,b,R
q1,b,qA,b,R
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.MachinesDir = t.TempDir()
	return cfg
}

func run(t *testing.T, cfg *config.Config, opts cli.RunOptions) (domain.Verdict, string, error) {
	t.Helper()
	var out bytes.Buffer
	opts.Stdout = &out
	if opts.Stdin == nil {
		opts.Stdin = strings.NewReader("")
	}
	verdict, err := cli.Run(context.Background(), cfg, logging.NewNop(), opts)
	return verdict, out.String(), err
}

func TestRun_TextTrace(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, t.TempDir(), "flip.yaml", flipYAML)

	verdict, out, err := run(t, cfg, cli.RunOptions{Ref: path, Banner: true})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictAccepted, verdict)
	assert.Equal(t, "Initial State: q0, Tape: ab, Head: 0\n"+
		"State: q0, Tape: ab, Head: 0\n"+
		"State: q1, Tape: bb, Head: 1\n"+
		"State: qA, Tape: bb, Head: 2\n"+
		"Accepted\n", out, "no banner or colours outside a terminal")
}

func TestRun_InputOverridesSample(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, t.TempDir(), "flip.yaml", flipYAML)

	verdict, out, err := run(t, cfg, cli.RunOptions{Ref: path, Input: "", InputSet: true})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictRejected, verdict)
	assert.True(t, strings.HasPrefix(out, "Initial State: q0, Tape: , Head: 0\n"))
}

func TestRun_LoamDirectory(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.MachinesDir, "flip.md", flipMarkdown)

	verdict, _, err := run(t, cfg, cli.RunOptions{Ref: "flip"})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictAccepted, verdict)

	_, _, err = run(t, cfg, cli.RunOptions{Ref: "missing"})
	assert.ErrorIs(t, err, domain.ErrMachineNotFound)
}

func TestRun_JSON(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, t.TempDir(), "flip.yaml", flipYAML)

	_, out, err := run(t, cfg, cli.RunOptions{Ref: path, JSON: true})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	var last runner.Event
	require.NoError(t, json.Unmarshal([]byte(lines[4]), &last))
	assert.Equal(t, domain.EventHalt, last.Type)
	assert.Equal(t, domain.VerdictAccepted, last.Verdict)
}

func TestRun_Pretty(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, t.TempDir(), "flip.yaml", flipYAML)

	_, out, err := run(t, cfg, cli.RunOptions{Ref: path, Pretty: true})
	require.NoError(t, err)
	assert.Contains(t, out, "flip")
	assert.Contains(t, out, "Accepted")
}

func TestRun_Interactive(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, t.TempDir(), "flip.yaml", flipYAML)

	_, out, err := run(t, cfg, cli.RunOptions{Ref: path, Interactive: true, Stdin: strings.NewReader("\nquit\n")})
	assert.ErrorIs(t, err, runner.ErrStopped)
	assert.Contains(t, out, "> State: q0, Tape: ab, Head: 0")
}

func TestRun_Errors(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	flip := writeFile(t, dir, "flip.yaml", flipYAML)
	bad := writeFile(t, dir, "bad.yaml", "states: q0\nalphabet: a\ntransitions: [\"q0,a,q1\"]\ninitial: q0\naccept: q0\nreject: q0\n")

	t.Run("Conflicting Flags", func(t *testing.T) {
		_, _, err := run(t, cfg, cli.RunOptions{Ref: flip, JSON: true, Pretty: true})
		assert.Error(t, err)
		_, _, err = run(t, cfg, cli.RunOptions{Ref: flip, Pretty: true, Interactive: true})
		assert.Error(t, err)
	})

	t.Run("Malformed Machine", func(t *testing.T) {
		_, _, err := run(t, cfg, cli.RunOptions{Ref: bad})
		var malformed *domain.MalformedTransitionError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "q0,a,q1", malformed.Line)
	})

	t.Run("Step Limit", func(t *testing.T) {
		loop := writeFile(t, dir, "loop.yaml", loopYAML)
		limited := *cfg
		limited.MaxSteps = 3
		verdict, _, err := run(t, &limited, cli.RunOptions{Ref: loop, Input: "a", InputSet: true})
		assert.ErrorIs(t, err, domain.ErrStepLimit)
		assert.Equal(t, domain.VerdictRunning, verdict)
	})

	t.Run("Input Too Large", func(t *testing.T) {
		t.Setenv(runner.EnvMaxInputSize, "1")
		_, _, err := run(t, cfg, cli.RunOptions{Ref: flip})
		assert.ErrorIs(t, err, runner.ErrInputTooLarge)
	})
}

func TestRun_ControlCharacterInput(t *testing.T) {
	cfg := testConfig(t)
	path := writeFile(t, t.TempDir(), "tabs.yaml", "states: q0,qA,qR\nalphabet: \"\\t\"\ntransitions:\n  - \"q0,\\t,qA,\\t,R\"\ninitial: q0\naccept: qA\nreject: qR\n")

	machine, err := cli.ResolveMachine(context.Background(), path, cfg.MachinesDir)
	require.NoError(t, err)
	require.Equal(t, []string{"q0,\t,qA,\t,R"}, machine.Description.Transitions)

	sim, err := turing.Load(machine.Description)
	require.NoError(t, err)
	ctx := context.Background()
	sim.Reset(ctx, "\t")
	want := sim.Tick(ctx)
	for !want.Halted() {
		want = sim.Tick(ctx)
	}
	require.Equal(t, domain.VerdictAccepted, want)

	t.Run("Tab Kept", func(t *testing.T) {
		verdict, _, err := run(t, cfg, cli.RunOptions{Ref: path, Input: "\t", InputSet: true})
		require.NoError(t, err)
		assert.Equal(t, want, verdict)
	})

	t.Run("Other Controls Refused", func(t *testing.T) {
		_, _, err := run(t, cfg, cli.RunOptions{Ref: path, Input: "\x00", InputSet: true})
		assert.ErrorIs(t, err, runner.ErrControlCharacter)
	})
}

func TestValidateAndGraph(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	flip := writeFile(t, dir, "flip.yaml", flipYAML)
	bad := writeFile(t, dir, "bad.yaml", "states: q0\nalphabet: a\ntransitions: [\"q0,a,q1\"]\ninitial: q0\naccept: q0\nreject: q0\n")
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, cli.Validate(ctx, cfg, logging.NewNop(), flip, &out))
	assert.Equal(t, "flip: ok (4 states, 2 symbols, 2 transitions, initial q0, accept qA, reject qR)\n", out.String())

	out.Reset()
	err := cli.Validate(ctx, cfg, logging.NewNop(), bad, &out)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out.String(), `bad: invalid (malformed_transition) at line "q0,a,q1": `))

	out.Reset()
	require.NoError(t, cli.Graph(ctx, cfg, logging.NewNop(), flip, &out))
	assert.Contains(t, out.String(), "graph LR\n")
	assert.Contains(t, out.String(), `q0 -->|"a/b,R"| q1`)
}

func TestSimulatorOptions(t *testing.T) {
	cfg := testConfig(t)
	desc := domain.Description{
		States:      "q0,q1,qA,qR",
		Alphabet:    "a",
		Transitions: []string{"q0,a,q1,a,S"},
		Initial:     "q1",
		Accept:      "qA",
		Reject:      "qR",
	}

	def, err := turing.Parse(desc, cli.SimulatorOptions(cfg, logging.NewNop())...)
	require.NoError(t, err)
	assert.Equal(t, "q0", def.InitialName())

	cfg.ExplicitInitial = true
	def, err = turing.Parse(desc, cli.SimulatorOptions(cfg, logging.NewNop())...)
	require.NoError(t, err)
	assert.Equal(t, "q1", def.InitialName())

	cfg.StrictDirections = true
	_, err = turing.Parse(desc, cli.SimulatorOptions(cfg, logging.NewNop())...)
	var invalid *domain.InvalidDirectionError
	assert.ErrorAs(t, err, &invalid)
}

func TestListMachines(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.MachinesDir, "flip.md", flipMarkdown)
	writeFile(t, cfg.MachinesDir, "loop.json", `{"states":"q0,qA,qR","alphabet":"a","initial":"q0","accept":"qA","reject":"qR"}`)

	ids, err := cli.ListMachines(context.Background(), cfg.MachinesDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"flip", "loop"}, ids)
}

func TestNewAPIHandler(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.MachinesDir, "flip.md", flipMarkdown)
	reg := prometheus.NewRegistry()

	handler, cleanup, err := cli.NewAPIHandler(context.Background(), cfg, logging.NewNop(), reg)
	require.NoError(t, err)
	defer cleanup()

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/sessions", "application/json", strings.NewReader(`{"machine_id":"flip","input":"ab"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "turing_runs_total 1")
}

func TestNewSessionManager_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()
	ctx := context.Background()

	mgr, cleanup, err := cli.NewSessionManager(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	s, err := mgr.Start(ctx, domain.Description{
		States:   "qA,qR",
		Alphabet: "a",
		Initial:  "qA",
		Accept:   "qA",
		Reject:   "qR",
	}, "a")
	require.NoError(t, err)
	assert.True(t, mr.Exists("turing:session:"+s.ID))

	mr.Close()
	_, _, err = cli.NewSessionManager(ctx, cfg, logging.NewNop())
	assert.Error(t, err)
}
