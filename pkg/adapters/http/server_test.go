package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/pkg/adapters/memory"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/observability"
	"github.com/aretw0/turing/pkg/runner"
	"github.com/aretw0/turing/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flipper() domain.Description {
	return domain.Description{
		States:      "q0,q1,qA,qR",
		Alphabet:    "a,b",
		Transitions: []string{"q0,a,q1,b,R", "q1,b,qA,b,R"},
		Initial:     "q0",
		Accept:      "qA",
		Reject:      "qR",
	}
}

func looper() domain.Description {
	return domain.Description{
		States:      "q0,q1,qA,qR",
		Alphabet:    "a",
		Transitions: []string{"q0,a,q1,a,R", "q1,a,q0,a,L"},
		Initial:     "q0",
		Accept:      "qA",
		Reject:      "qR",
	}
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	streams := NewStreamManager(nil)
	mgr := session.NewManager(memory.NewStore(), session.WithChangeListener(streams.Publish))
	srv := httptest.NewServer(NewHandler(mgr, append([]Option{WithStreams(streams)}, opts...)...))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func start(t *testing.T, srv *httptest.Server, desc domain.Description, input string) *domain.Session {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/sessions", StartRequest{Machine: &desc, Input: input})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[*domain.Session](t, resp)
}

func TestValidateMachine(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Valid", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/validate", flipper())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		m := decode[Machine](t, resp)
		assert.Equal(t, []string{"q0", "q1", "qA", "qR"}, m.States)
		assert.Equal(t, "q0", m.Initial)
		require.Len(t, m.Transitions, 2)
		assert.Equal(t, domain.Transition{From: "q0", Read: "a", To: "q1", Write: "b", Direction: "R"}, m.Transitions[0])
	})

	t.Run("Malformed Transition", func(t *testing.T) {
		desc := flipper()
		desc.Transitions = append(desc.Transitions, "q0,a,q1")
		resp := do(t, srv, http.MethodPost, "/validate", desc)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		e := decode[ErrorResponse](t, resp)
		assert.Equal(t, "malformed_transition", e.Kind)
		assert.Equal(t, "q0,a,q1", e.Line)
	})

	t.Run("Missing Accept", func(t *testing.T) {
		desc := flipper()
		desc.Accept = ""
		resp := do(t, srv, http.MethodPost, "/validate", desc)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "missing_distinguished_state", decode[ErrorResponse](t, resp).Kind)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		resp, err := srv.Client().Post(srv.URL+"/validate", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestValidateMachine_StrictDirections(t *testing.T) {
	srv := newTestServer(t, WithParseOptions(turing.WithStrictDirections()))

	desc := flipper()
	desc.Transitions = []string{"q0,a,q1,b,S"}
	resp := do(t, srv, http.MethodPost, "/validate", desc)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_direction", decode[ErrorResponse](t, resp).Kind)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	s := start(t, srv, flipper(), "ab")
	assert.Equal(t, domain.VerdictRunning, s.Verdict)
	assert.Equal(t, []string{"a", "b"}, s.Configuration.Tape)

	resp := do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/step", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stepped := decode[*domain.Session](t, resp)
	assert.Equal(t, "q1", stepped.Configuration.State)
	assert.Equal(t, 1, stepped.Configuration.Head)

	resp = do(t, srv, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{s.ID}, decode[map[string][]string](t, resp)["sessions"])

	resp = do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	run := decode[RunResponse](t, resp)
	assert.False(t, run.LimitReached)
	assert.Equal(t, domain.VerdictAccepted, run.Session.Verdict)
	assert.Equal(t, domain.HaltAcceptState, run.Session.Reason)

	resp = do(t, srv, http.MethodGet, "/sessions/"+s.ID+"/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "graph LR")
	assert.Contains(t, string(raw), "class qA current;")

	input := "b"
	resp = do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/reset", ResetRequest{Input: &input})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reset := decode[*domain.Session](t, resp)
	assert.Equal(t, "b", reset.Input)
	assert.Equal(t, domain.VerdictRunning, reset.Verdict)
	assert.Equal(t, 0, reset.Configuration.Steps)

	resp = do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "b", decode[*domain.Session](t, resp).Input, "empty body keeps the input")

	resp = do(t, srv, http.MethodDelete, "/sessions/"+s.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/sessions/"+s.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/step", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunSession_MaxSteps(t *testing.T) {
	srv := newTestServer(t, WithMaxSteps(7))
	s := start(t, srv, looper(), "aa")

	resp := do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/run?max_steps=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	run := decode[RunResponse](t, resp)
	assert.True(t, run.LimitReached)
	assert.Equal(t, domain.VerdictRunning, run.Session.Verdict)
	assert.Equal(t, 3, run.Session.Configuration.Steps)

	resp = do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, decode[RunResponse](t, resp).Session.Configuration.Steps, "server default budget")

	for _, bad := range []string{"0", "-1", "abc"} {
		resp = do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/run?max_steps="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestStartSession(t *testing.T) {
	loader := memory.NewLoader(map[string]domain.Description{"flipper": flipper()})
	srv := newTestServer(t, WithLoader(loader))
	desc := flipper()

	tests := []struct {
		name   string
		body   StartRequest
		status int
	}{
		{"By ID", StartRequest{MachineID: "flipper", Input: "ab"}, http.StatusCreated},
		{"Unknown ID", StartRequest{MachineID: "nope"}, http.StatusNotFound},
		{"Both", StartRequest{Machine: &desc, MachineID: "flipper"}, http.StatusBadRequest},
		{"Neither", StartRequest{Input: "ab"}, http.StatusBadRequest},
		{"Tab Kept", StartRequest{Machine: &desc, Input: "a\tb"}, http.StatusCreated},
		{"Control Character Refused", StartRequest{Machine: &desc, Input: "a\x00b"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/sessions", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusCreated {
				assert.Equal(t, tt.body.Input, decode[*domain.Session](t, resp).Input)
			}
		})
	}
}

func TestStartSession_Errors(t *testing.T) {
	srv := newTestServer(t)

	t.Run("No Loader", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/sessions", StartRequest{MachineID: "flipper"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Parse Error", func(t *testing.T) {
		desc := flipper()
		desc.States = ""
		resp := do(t, srv, http.MethodPost, "/sessions", StartRequest{Machine: &desc})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "empty_states", decode[ErrorResponse](t, resp).Kind)
	})

	t.Run("Input Too Large", func(t *testing.T) {
		t.Setenv(runner.EnvMaxInputSize, "2")
		desc := flipper()
		resp := do(t, srv, http.MethodPost, "/sessions", StartRequest{Machine: &desc, Input: "aaa"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestInfoHealthSpec(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])

	resp = do(t, srv, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[map[string]string](t, resp)
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(turing.Version), info["version"])

	resp = do(t, srv, http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "openapi: 3.0.3")

	resp = do(t, srv, http.MethodOptions, "/sessions", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/sessions/{id}/run"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	mgr := session.NewManager(memory.NewStore(),
		session.WithSimulatorOptions(turing.WithLifecycleHooks(metrics.Hooks())))
	srv := httptest.NewServer(NewHandler(mgr, WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))))
	t.Cleanup(srv.Close)

	s := start(t, srv, flipper(), "ab")
	resp := do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `turing_halts_total{reason="accept-state",verdict="accepted"} 1`)
	assert.Contains(t, string(raw), "turing_steps_total 2")
}

func TestSubscribeEvents_Session(t *testing.T) {
	srv := newTestServer(t)
	s := start(t, srv, flipper(), "ab")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?session_id="+s.ID, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	nextData := func() string {
		for {
			line, err := lines.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}
	require.Equal(t, "connected", nextData())

	stepResp := do(t, srv, http.MethodPost, "/sessions/"+s.ID+"/step", nil)
	require.Equal(t, http.StatusOK, stepResp.StatusCode)

	var diff domain.ConfigurationDiff
	require.NoError(t, json.Unmarshal([]byte(nextData()), &diff))
	assert.Equal(t, s.ID, diff.SessionID)
	require.NotNil(t, diff.State)
	assert.Equal(t, "q1", *diff.State)
	assert.Equal(t, map[int]string{0: "b"}, diff.Cells)
	assert.Nil(t, diff.Tape)

	delResp := do(t, srv, http.MethodDelete, "/sessions/"+s.ID, nil)
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)
	assert.JSONEq(t, `{"session_id":"`+s.ID+`","deleted":true}`, nextData())
}

func TestSubscribeEvents_MissingSessionID(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatchesWatch(t *testing.T) {
	state := "q1"
	headOnly, _ := json.Marshal(domain.ConfigurationDiff{SessionID: "s", Head: new(int)})
	stateOnly, _ := json.Marshal(domain.ConfigurationDiff{SessionID: "s", State: &state})
	cells, _ := json.Marshal(domain.ConfigurationDiff{SessionID: "s", Cells: map[int]string{1: "x"}})

	tests := []struct {
		name  string
		msg   string
		watch []string
		want  bool
	}{
		{"No Filter", string(headOnly), nil, true},
		{"Watched", string(stateOnly), []string{"state"}, true},
		{"Not Watched", string(headOnly), []string{"state", "verdict"}, false},
		{"Cells Count As Tape", string(cells), []string{" tape"}, true},
		{"Deletion Always Passes", `{"session_id":"s","deleted":true}`, []string{"state"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesWatch(tt.msg, tt.watch))
		})
	}
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s")

	for i := 0; i < 20; i++ {
		sm.Broadcast("s", "msg")
	}
	assert.Len(t, ch, cap(ch))

	cancel()
	cancel()
	_, open := <-ch
	for open {
		_, open = <-ch
	}
	sm.Broadcast("s", "after cancel")
}
