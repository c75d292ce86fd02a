package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// integer narrows a number property to whole numbers.
func integer() mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["type"] = "integer"
	}
}

// compileInputSchema compiles the input schema the tool advertises.
func compileInputSchema(tool mcp.Tool) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input schema of %s: %w", tool.Name, err)
	}

	url := tool.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("schema resource %s: %w", tool.Name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", tool.Name, err)
	}
	return s, nil
}

// validateArguments checks the call arguments against schema.
func validateArguments(schema *jsonschema.Schema, req mcp.CallToolRequest) error {
	raw, err := json.Marshal(req.GetRawArguments())
	if err != nil {
		return &ValidationError{Message: err.Error()}
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Message: describeViolations(verr)}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// describeViolations joins the leaf causes of a schema violation.
func describeViolations(verr *jsonschema.ValidationError) string {
	var msgs []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := strings.TrimPrefix(e.InstanceLocation, "/")
			if loc == "" {
				msgs = append(msgs, e.Message)
			} else {
				msgs = append(msgs, loc+": "+e.Message)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return strings.Join(msgs, "; ")
}

// withArgumentValidation rejects calls whose arguments do not match the
// tool's input schema before handler runs.
func withArgumentValidation(tool mcp.Tool, handler server.ToolHandlerFunc) (server.ToolHandlerFunc, error) {
	schema, err := compileInputSchema(tool)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := validateArguments(schema, req); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}, nil
}

// toolResult renders r as JSON text. Envelopes are flagged as errors.
func toolResult[T any](logger *slog.Logger, r Result[T]) *mcp.CallToolResult {
	data, err := json.Marshal(r)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		data, _ = json.Marshal(ErrorEnvelope{Success: false, Error: "failed to encode result: " + err.Error()})
		return mcp.NewToolResultError(string(data))
	}
	if !r.OK() {
		return mcp.NewToolResultError(string(data))
	}
	return mcp.NewToolResultText(string(data))
}
