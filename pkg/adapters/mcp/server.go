package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/internal/compiler"
	"github.com/aretw0/turing/internal/presentation/graph"
	"github.com/aretw0/turing/pkg/domain"
	"github.com/aretw0/turing/pkg/ports"
	"github.com/aretw0/turing/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MachineArgs identifies a machine: either inline fields or an ID resolved by the loader.
type MachineArgs struct {
	MachineID   string `json:"machine_id,omitempty"`
	States      string `json:"states,omitempty"`
	Alphabet    string `json:"alphabet,omitempty"`
	Transitions string `json:"transitions,omitempty"`
	Initial     string `json:"initial,omitempty"`
	Accept      string `json:"accept,omitempty"`
	Reject      string `json:"reject,omitempty"`
}

// SimulateArgs are the arguments of the simulate tool.
type SimulateArgs struct {
	MachineArgs
	Input    string `json:"input"`
	MaxSteps int    `json:"max_steps,omitempty"`
}

// ValidateResult is returned by validate_machine. A parse failure is a result, not a tool error.
type ValidateResult struct {
	Valid       bool                `json:"valid" jsonschema_description:"Whether the description parsed"`
	Error       string              `json:"error,omitempty"`
	Kind        string              `json:"kind,omitempty" jsonschema_description:"Error category, e.g. malformed_transition"`
	Line        string              `json:"line,omitempty" jsonschema_description:"The offending transition line"`
	States      []string            `json:"states,omitempty"`
	Initial     string              `json:"initial,omitempty"`
	Accept      string              `json:"accept,omitempty"`
	Reject      string              `json:"reject,omitempty"`
	Transitions []domain.Transition `json:"transitions,omitempty"`
}

// SimulateResult is returned by simulate.
type SimulateResult struct {
	Verdict       domain.Verdict       `json:"verdict" jsonschema_description:"accepted, rejected, or running when the step budget ran out"`
	Reason        domain.HaltReason    `json:"reason,omitempty"`
	LimitReached  bool                 `json:"limit_reached"`
	Configuration domain.Configuration `json:"configuration" jsonschema_description:"The final configuration"`
	Trace         []string             `json:"trace" jsonschema_description:"One line per configuration, as the CLI prints it"`
}

// Server exposes the simulator as an MCP Server.
type Server struct {
	loader    ports.MachineLoader
	maxSteps  int
	simOpts   []turing.Option
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLoader lets tools address machines by ID.
func WithLoader(loader ports.MachineLoader) Option {
	return func(s *Server) { s.loader = loader }
}

// WithMaxSteps sets the budget simulate uses when max_steps is absent.
func WithMaxSteps(n int) Option {
	return func(s *Server) { s.maxSteps = n }
}

// WithSimulatorOptions configures how descriptions are parsed and run.
func WithSimulatorOptions(opts ...turing.Option) Option {
	return func(s *Server) { s.simOpts = opts }
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(opts ...Option) *Server {
	s := &Server{
		maxSteps:  runner.DefaultMaxSteps,
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("turing-mcp", strings.TrimSpace(turing.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func machineOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("machine_id", mcp.Description("ID of a stored machine (instead of the inline fields)")),
		mcp.WithString("states", mcp.Description("Comma-separated states; the first one is the initial state")),
		mcp.WithString("alphabet", mcp.Description("Comma-separated input symbols")),
		mcp.WithString("transitions", mcp.Description("One transition per line: state,symbol,newState,newSymbol,direction (L or R)")),
		mcp.WithString("initial", mcp.Description("Initial state")),
		mcp.WithString("accept", mcp.Description("Accept state")),
		mcp.WithString("reject", mcp.Description("Reject state")),
	}
}

func (s *Server) registerTools() {
	validateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Parse a Turing machine description and report the first error, if any."),
		mcp.WithOutputSchema[ValidateResult](),
	}, machineOptions()...)
	s.mcpServer.AddTool(mcp.NewTool("validate_machine", validateOpts...), mcp.NewStructuredToolHandler(s.handleValidate))

	simulateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Run a Turing machine on an input until it accepts, rejects or exhausts max_steps."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Initial tape contents; every character is one cell")),
		mcp.WithNumber("max_steps", mcp.Description("Step budget")),
		mcp.WithOutputSchema[SimulateResult](),
	}, machineOptions()...)
	s.mcpServer.AddTool(mcp.NewTool("simulate", simulateOpts...), mcp.NewStructuredToolHandler(s.handleSimulate))

	graphOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Render the transition table as a Mermaid flowchart."),
	}, machineOptions()...)
	s.mcpServer.AddTool(mcp.NewTool("machine_graph", graphOpts...), s.handleGraph)
}

func (s *Server) registerResources() {
	if s.loader == nil {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource("turing://machines", "Stored machine IDs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.loader.ListMachines(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list machines: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "turing://machines",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func (s *Server) description(ctx context.Context, args MachineArgs) (domain.Description, error) {
	if args.MachineID != "" {
		if s.loader == nil {
			return domain.Description{}, errors.New("machine_id given but no machine directory is configured")
		}
		return s.loader.GetMachine(ctx, args.MachineID)
	}
	return domain.Description{
		States:      args.States,
		Alphabet:    args.Alphabet,
		Transitions: compiler.SplitLines(args.Transitions),
		Initial:     args.Initial,
		Accept:      args.Accept,
		Reject:      args.Reject,
	}, nil
}

func (s *Server) handleValidate(ctx context.Context, _ mcp.CallToolRequest, args MachineArgs) (ValidateResult, error) {
	desc, err := s.description(ctx, args)
	if err != nil {
		return ValidateResult{}, err
	}

	def, err := turing.Parse(desc, s.simOpts...)
	if err != nil {
		return ValidateResult{
			Error: err.Error(),
			Kind:  domain.ErrorKind(err),
			Line:  domain.ErrorLine(err),
		}, nil
	}

	return ValidateResult{
		Valid:       true,
		States:      def.States,
		Initial:     def.InitialName(),
		Accept:      def.AcceptName(),
		Reject:      def.RejectName(),
		Transitions: def.Transitions(),
	}, nil
}

func (s *Server) handleSimulate(ctx context.Context, _ mcp.CallToolRequest, args SimulateArgs) (SimulateResult, error) {
	desc, err := s.description(ctx, args.MachineArgs)
	if err != nil {
		return SimulateResult{}, err
	}

	input, err := runner.SanitizeInput(args.Input)
	if err != nil {
		s.logger.Warn("MCP simulate: input rejected", "err", err, "size", len(args.Input))
		return SimulateResult{}, fmt.Errorf("input rejected: %w", err)
	}

	opts := append([]turing.Option{turing.WithLogger(s.logger)}, s.simOpts...)
	sim, err := turing.Load(desc, opts...)
	if err != nil {
		return SimulateResult{}, fmt.Errorf("invalid machine (%s): %w", domain.ErrorKind(err), err)
	}

	budget := s.maxSteps
	if args.MaxSteps > 0 {
		budget = args.MaxSteps
	}

	var trace bytes.Buffer
	r := runner.NewRunner(
		runner.WithMaxSteps(budget),
		runner.WithLogger(s.logger),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(""), &trace)),
	)
	verdict, err := r.Run(ctx, sim, input)
	limited := errors.Is(err, runner.ErrStepLimit)
	if err != nil && !limited {
		return SimulateResult{}, fmt.Errorf("simulation failed: %w", err)
	}

	return SimulateResult{
		Verdict:       verdict,
		Reason:        sim.Reason(),
		LimitReached:  limited,
		Configuration: sim.Snapshot(),
		Trace:         strings.Split(strings.TrimSuffix(trace.String(), "\n"), "\n"),
	}, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args MachineArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	desc, err := s.description(ctx, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	def, err := turing.Parse(desc, s.simOpts...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid machine: %v", err)), nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(def, nil)), nil
}
