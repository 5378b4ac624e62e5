package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/presentation/graph"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/aretw0/turing/pkg/runner"
	"github.com/aretw0/turing/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Server serves the simulator API over a session manager.
type Server struct {
	Sessions     *session.Manager
	Loader       ports.MachineLoader
	Streams      *StreamManager
	Logger       *slog.Logger
	MaxSteps     int
	Metrics      http.Handler
	ParseOptions []turing.Option
}

// Option configures the Server.
type Option func(*Server)

// WithLoader lets POST /sessions start machines by ID.
func WithLoader(loader ports.MachineLoader) Option {
	return func(s *Server) { s.Loader = loader }
}

// WithStreams sets the stream manager feeding GET /events. Register its
// Publish method as the session manager's change listener.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) { s.Streams = streams }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.Logger = logger }
}

// WithMaxSteps sets the budget used by POST /sessions/{id}/run when max_steps is absent.
func WithMaxSteps(n int) Option {
	return func(s *Server) { s.MaxSteps = n }
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithParseOptions configures how POST /validate parses descriptions.
func WithParseOptions(opts ...turing.Option) Option {
	return func(s *Server) { s.ParseOptions = opts }
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		MaxSteps: runner.DefaultMaxSteps,
		Logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.Logger)
	}

	r := chi.NewRouter()
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec())
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Post("/validate", s.ValidateMachine)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSessionID(s.GetSession))
			r.Delete("/", s.withSessionID(s.DeleteSession))
			r.Post("/step", s.withSessionID(s.StepSession))
			r.Post("/run", s.withSessionID(s.RunSession))
			r.Post("/reset", s.withSessionID(s.ResetSession))
			r.Get("/graph", s.withSessionID(s.GetSessionGraph))
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, id string)

// withSessionID binds the {id} path parameter.
func (s *Server) withSessionID(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter id: %w", err))
			return
		}
		next(w, r, id)
	}
}

// Machine is the parsed form returned by POST /validate.
type Machine struct {
	States      []string            `json:"states"`
	Alphabet    []string            `json:"alphabet"`
	Initial     string              `json:"initial"`
	Accept      string              `json:"accept"`
	Reject      string              `json:"reject"`
	Transitions []domain.Transition `json:"transitions"`
}

// StartRequest is the body of POST /sessions.
type StartRequest struct {
	Machine   *domain.Description `json:"machine,omitempty"`
	MachineID string              `json:"machine_id,omitempty"`
	Input     string              `json:"input"`
}

// ResetRequest is the optional body of POST /sessions/{id}/reset.
type ResetRequest struct {
	Input *string `json:"input,omitempty"`
}

// RunResponse is returned by POST /sessions/{id}/run.
type RunResponse struct {
	Session      *domain.Session `json:"session"`
	LimitReached bool            `json:"limit_reached"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Line  string `json:"line,omitempty"`
}

// ValidateMachine handles the POST /validate request.
func (s *Server) ValidateMachine(w http.ResponseWriter, r *http.Request) {
	var desc domain.Description
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	def, err := turing.Parse(desc, s.ParseOptions...)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.writeJSON(w, http.StatusOK, Machine{
		States:      def.States,
		Alphabet:    def.Alphabet,
		Initial:     def.InitialName(),
		Accept:      def.AcceptName(),
		Reject:      def.RejectName(),
		Transitions: def.Transitions(),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// StartSession handles the POST /sessions request.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	input, err := runner.SanitizeInput(body.Input)
	if err != nil {
		s.Logger.Warn("StartSession: input rejected", "err", err, "size", len(body.Input))
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var desc domain.Description
	switch {
	case body.Machine != nil && body.MachineID != "":
		s.writeError(w, http.StatusBadRequest, errors.New("machine and machine_id are mutually exclusive"))
		return
	case body.Machine != nil:
		desc = *body.Machine
	case body.MachineID != "":
		if s.Loader == nil {
			s.writeError(w, http.StatusBadRequest, errors.New("no machine directory configured"))
			return
		}
		desc, err = s.Loader.GetMachine(r.Context(), body.MachineID)
		if err != nil {
			s.writeError(w, statusFor(err), err)
			return
		}
	default:
		s.writeError(w, http.StatusBadRequest, errors.New("machine or machine_id is required"))
		return
	}

	created, err := s.Sessions.Start(r.Context(), desc, input)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id string) {
	found, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, found)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StepSession handles the POST /sessions/{id}/step request.
func (s *Server) StepSession(w http.ResponseWriter, r *http.Request, id string) {
	updated, err := s.Sessions.Step(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// RunSession handles the POST /sessions/{id}/run request.
func (s *Server) RunSession(w http.ResponseWriter, r *http.Request, id string) {
	var maxSteps *int
	if err := runtime.BindQueryParameter("form", true, false, "max_steps", r.URL.Query(), &maxSteps); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter max_steps: %w", err))
		return
	}
	budget := s.MaxSteps
	if maxSteps != nil {
		if *maxSteps < 1 {
			s.writeError(w, http.StatusBadRequest, errors.New("max_steps must be positive"))
			return
		}
		budget = *maxSteps
	}

	updated, err := s.Sessions.Run(r.Context(), id, budget)
	if err != nil && !errors.Is(err, domain.ErrStepLimit) {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Session: updated, LimitReached: err != nil})
}

// ResetSession handles the POST /sessions/{id}/reset request.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request, id string) {
	var body ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if body.Input != nil {
		clean, err := runner.SanitizeInput(*body.Input)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		body.Input = &clean
	}

	updated, err := s.Sessions.Reset(r.Context(), id, body.Input)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// GetSessionGraph handles the GET /sessions/{id}/graph request.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request, id string) {
	sim, err := s.Sessions.Simulator(r.Context(), id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(sim.Definition(), &graph.Overlay{CurrentState: sim.CurrentState()}))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.Logger.Error("Failed to load OpenAPI spec", "err", err)
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "turing-http",
		"version":     strings.TrimSpace(turing.Version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if err := runtime.BindQueryParameter("form", true, true, "session_id", r.URL.Query(), &sessionID); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter session_id: %w", err))
		return
	}
	var watch *string
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid format for parameter watch: %w", err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch != nil {
		watchList = strings.Split(*watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// matchesWatch reports whether a diff touches one of the watched fields.
// Events that are not diffs (deletions) always pass.
func matchesWatch(msg string, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	var diff domain.ConfigurationDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil || diff.IsEmpty() {
		return true
	}
	for _, field := range watchList {
		switch strings.TrimSpace(field) {
		case "state":
			if diff.State != nil {
				return true
			}
		case "head":
			if diff.Head != nil {
				return true
			}
		case "tape":
			if diff.Tape != nil || len(diff.Cells) > 0 {
				return true
			}
		case "steps":
			if diff.Steps != nil {
				return true
			}
		case "verdict":
			if diff.Verdict != nil {
				return true
			}
		}
	}
	return false
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrMachineNotFound):
		return http.StatusNotFound
	case domain.ErrorKind(err) != "":
		return http.StatusUnprocessableEntity
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8),
		errors.Is(err, runner.ErrControlCharacter):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "err", err)
	} else {
		s.Logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{
		Error: err.Error(),
		Kind:  domain.ErrorKind(err),
		Line:  domain.ErrorLine(err),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
