// Package tools exposes the library and analyzer as named tools that take
// JSON arguments and return JSON, for assistants and scripted callers.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/logging"
)

var (
	// ErrUnknownTool is returned for a tool name that is not registered
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when arguments do not match the tool schema
	ErrInvalidArguments = errors.New("invalid arguments")
)

// Tool is a named operation with a JSON schema for its arguments
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`

	resolved *jsonschema.Resolved
	invoke   func(ctx context.Context, args []byte) (any, error)
}

// newTool derives the argument schema from A and decodes arguments into A before calling fn
func newTool[A any](name, description string, fn func(ctx context.Context, args A) (any, error)) (*Tool, error) {
	schema, err := jsonschema.For[A](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to derive schema for %s: %w", name, err)
	}
	return buildTool(name, description, schema, fn)
}

func buildTool[A any](name, description string, schema *jsonschema.Schema, fn func(ctx context.Context, args A) (any, error)) (*Tool, error) {
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema for %s: %w", name, err)
	}

	return &Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
		resolved:    resolved,
		invoke: func(ctx context.Context, raw []byte) (any, error) {
			var args A
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
			}
			return fn(ctx, args)
		},
	}, nil
}

// validate checks raw against the schema
func (t *Tool) validate(raw []byte) error {
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if err := t.resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

// Registry holds the tools in registration order
type Registry struct {
	tools    map[string]*Tool
	order    []string
	handlers *handlers
	logger   logging.Logger
}

// NewRegistry registers every tool over lib and analyzer
func NewRegistry(lib *library.Library, analyzer *analysis.Analyzer, logger logging.Logger) (*Registry, error) {
	logger = logging.OrNoOp(logger).WithFields(logging.Fields{"component": "tools"})

	r := &Registry{
		tools:  map[string]*Tool{},
		logger: logger,
		handlers: &handlers{
			lib:   lib,
			async: analysis.NewAsync(analyzer),
		},
	}
	if err := r.registerAll(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) add(t *Tool, err error) error {
	if err != nil {
		return err
	}
	if _, dup := r.tools[t.Name]; dup {
		return fmt.Errorf("tool %s registered twice", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// List returns the tools in registration order
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Get returns a tool by name
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Invoke validates args and runs the named tool. Empty args mean {}.
func (r *Registry) Invoke(ctx context.Context, name string, args []byte) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if len(strings.TrimSpace(string(args))) == 0 {
		args = []byte("{}")
	}
	if err := t.validate(args); err != nil {
		return nil, err
	}

	return t.invoke(ctx, args)
}

// Call runs the named tool and always returns JSON: the indented result, or
// {"error": "..."} when the tool is unknown or fails
func (r *Registry) Call(ctx context.Context, name string, args []byte) string {
	result, err := r.Invoke(ctx, name, args)
	if err != nil {
		r.logger.Warn("Tool call failed", logging.Fields{"tool": name, "error": err.Error()})
		return errorJSON(err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorJSON(fmt.Errorf("failed to encode result: %w", err))
	}
	return string(out)
}

func errorJSON(err error) string {
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(out)
}
