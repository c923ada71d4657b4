package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bpowers/mathquill/pkg/script"
)

// Tool name constants.
const (
	ToolNameRun      = "tree_run"
	ToolNameValidate = "tree_validate"
)

// MaxScriptBytes is the maximum accepted script size (1 MB).
const MaxScriptBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyScript indicates the script parameter is empty.
	ErrEmptyScript = errors.New("script parameter is required and must not be empty")
	// ErrScriptTooLarge indicates the script exceeds the size limit.
	ErrScriptTooLarge = errors.New("script exceeds maximum size")
)

const (
	runToolDescription = "Run an edit script (YAML or JSON) against a fresh tree arena. " +
		"Steps create nodes and splice sibling runs with adopt and disown. " +
		"Returns the rendered forest, the node table and per-step outcomes."

	validateToolDescription = "Validate an edit script (YAML or JSON) against the script schema " +
		"without running it."
)

// RunInput is the input schema for the tree_run tool.
type RunInput struct {
	Script     string `json:"script"               jsonschema:"edit script document, YAML or JSON"`
	Assertions bool   `json:"assertions,omitempty" jsonschema:"enable reachability and cycle checks"`
}

// ValidateInput is the input schema for the tree_validate tool.
type ValidateInput struct {
	Script string `json:"script" jsonschema:"edit script document, YAML or JSON"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// RunOutput is what tree_run reports.
type RunOutput struct {
	Result *script.Result `json:"result"`
	Error  string         `json:"error,omitempty"`
}

// ValidateOutput is what tree_validate reports.
type ValidateOutput struct {
	Valid  bool           `json:"valid"`
	Issues []script.Issue `json:"issues,omitempty"`
}

func (s *Server) handleRun(ctx context.Context, _ *mcpsdk.CallToolRequest, input RunInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateScriptInput(input.Script)
	if err != nil {
		return errorResult(err)
	}

	parsed, err := s.load([]byte(input.Script))
	if err != nil {
		return errorResult(err)
	}

	opts := script.Options{
		Assertions: s.deps.Assertions || input.Assertions,
		Logger:     s.deps.Logger,
	}

	if s.deps.TreeMetrics != nil {
		opts.Observer = s.deps.TreeMetrics.WithContext(ctx)
	}

	result, runErr := script.Run(ctx, parsed, opts)

	out := RunOutput{Result: result}
	if runErr != nil {
		out.Error = runErr.Error()
	}

	callResult, output, err := jsonResult(out)
	if runErr != nil && callResult != nil {
		callResult.IsError = true
	}

	return callResult, output, err
}

func (s *Server) load(data []byte) (*script.Script, error) {
	if s.deps.Scripts == nil {
		return script.Load(data)
	}

	return s.deps.Scripts.Load(data)
}

func handleValidate(_ context.Context, _ *mcpsdk.CallToolRequest, input ValidateInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateScriptInput(input.Script)
	if err != nil {
		return errorResult(err)
	}

	err = script.Validate([]byte(input.Script))
	if err == nil {
		return jsonResult(ValidateOutput{Valid: true})
	}

	var verr *script.ValidationError
	if errors.As(err, &verr) {
		return jsonResult(ValidateOutput{Issues: verr.Issues})
	}

	return errorResult(err)
}

func validateScriptInput(text string) error {
	if text == "" {
		return ErrEmptyScript
	}

	if len(text) > MaxScriptBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrScriptTooLarge, len(text), MaxScriptBytes)
	}

	return nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
