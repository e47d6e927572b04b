// Package tools holds the tools the agent may call: the built-in tools and
// any tools discovered on MCP servers.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// Tool is a single callable tool.
type Tool struct {
	Name        string
	Description string
	// Schema is the JSON schema of the tool input object.
	Schema map[string]any
	Run    func(ctx context.Context, args json.RawMessage) (string, error)
}

// New defines a tool whose input is decoded into T. The input schema is
// reflected from T.
func New[T any](name, description string, fn func(ctx context.Context, input T) (string, error)) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Schema:      Schema[T](),
		Run: func(ctx context.Context, args json.RawMessage) (string, error) {
			var input T
			if err := DecodeArgs(args, &input); err != nil {
				return "", fmt.Errorf("%s: invalid arguments: %w", name, err)
			}
			return fn(ctx, input)
		},
	}
}

// DecodeArgs decodes tool arguments into v. Empty input leaves v untouched.
// Arguments with JSON syntax errors, as small local models often produce, are
// repaired once before giving up.
func DecodeArgs(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	err := json.Unmarshal(data, v)
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err //nolint:wrapcheck
	}
	fixed, rerr := jsonrepair.JSONRepair(string(data))
	if rerr != nil {
		return err //nolint:wrapcheck
	}
	return json.Unmarshal([]byte(fixed), v) //nolint:wrapcheck
}

// Schema returns the JSON schema for T as a plain map.
func Schema[T any]() map[string]any {
	r := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	var zero T
	bts, err := json.Marshal(r.Reflect(&zero))
	if err != nil {
		panic(fmt.Sprintf("tools: reflect schema: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(bts, &out); err != nil {
		panic(fmt.Sprintf("tools: decode schema: %v", err))
	}
	delete(out, "$schema")
	delete(out, "$id")
	if _, ok := out["properties"]; !ok {
		out["properties"] = map[string]any{}
	}
	return out
}

// Registry is an ordered, read-only set of tools.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry builds a registry. Tool names must be unique.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(tools))}
	for _, tool := range tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("tool without a name")
		}
		if _, ok := r.index[tool.Name]; ok {
			return nil, fmt.Errorf("duplicate tool %q", tool.Name)
		}
		r.index[tool.Name] = len(r.tools)
		r.tools = append(r.tools, tool)
	}
	return r, nil
}

// Len returns the number of tools.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tools)
}

// All returns the tools in registration order.
func (r *Registry) All() []Tool {
	if r == nil {
		return nil
	}
	return slices.Clone(r.tools)
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	for _, tool := range r.All() {
		names = append(names, tool.Name)
	}
	return names
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	if r == nil {
		return Tool{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Call runs the named tool. A panicking tool is reported as an error.
func (r *Registry) Call(ctx context.Context, name string, args []byte) (out string, err error) {
	tool, ok := r.Lookup(name)
	if !ok {
		return "", unknownToolError(name, r.Names())
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: panic: %v", name, p)
		}
	}()
	return tool.Run(ctx, args)
}

func unknownToolError(name string, available []string) error {
	if len(available) == 0 {
		return fmt.Errorf("unknown tool %q: no tools are available", name)
	}
	return fmt.Errorf("unknown tool %q: available tools are %s", name, xstrings.EnglishJoin(available, true))
}
