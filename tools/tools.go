// Package tools implements the tool registry and executor (spec §4.5).
// Tools are duck-typed against hooks.Tool: any type exposing Spec() and
// Stream(ctx, model.ToolUse, *invocation.State) satisfies the executor's
// dependency without this package needing to import hooks' concrete event
// types into its own API surface.
package tools

import (
	"context"

	"github.com/agentcore/agentcore/hooks"
	"github.com/agentcore/agentcore/invocation"
	"github.com/agentcore/agentcore/model"
)

// Tool is a callable the registry dispatches to. It is defined again here,
// identical in shape to hooks.Tool, so registry and executor code in this
// package can depend on a tools-local name; the two interfaces are
// structurally interchangeable.
type Tool interface {
	Spec() model.ToolSpec
	Stream(ctx context.Context, toolUse model.ToolUse, state *invocation.State) (hooks.ToolStream, error)
}

// HandlerFunc adapts a simple synchronous function into a Tool that yields a
// single terminal ToolResult, for tools with no intermediate progress events
// (spec §4.5 "most tools complete in one step").
type HandlerFunc func(ctx context.Context, toolUse model.ToolUse, state *invocation.State) (model.ToolResult, error)

type funcTool struct {
	spec    model.ToolSpec
	handler HandlerFunc
}

// NewFunc builds a Tool from a spec and a synchronous handler.
func NewFunc(spec model.ToolSpec, handler HandlerFunc) Tool {
	return &funcTool{spec: spec, handler: handler}
}

func (t *funcTool) Spec() model.ToolSpec { return t.spec }

func (t *funcTool) Stream(ctx context.Context, toolUse model.ToolUse, state *invocation.State) (hooks.ToolStream, error) {
	result, err := t.handler(ctx, toolUse, state)
	if err != nil {
		result = model.ToolResult{
			ID:     toolUse.ID,
			Status: model.ToolResultStatusError,
			Content: []model.ContentBlock{
				model.TextBlock(err.Error()),
			},
		}
	}
	return &singleResultStream{result: result}, nil
}

type singleResultStream struct {
	result model.ToolResult
	done   bool
}

func (s *singleResultStream) Next(ctx context.Context) (hooks.ToolEvent, error) {
	if s.done {
		return hooks.ToolEvent{}, errStreamExhausted
	}
	s.done = true
	r := s.result
	return hooks.ToolEvent{Result: &r}, nil
}

func (s *singleResultStream) Close() error { return nil }

// Registry resolves tool names to Tool implementations. Static tools are
// registered at construction time; dynamic tools (registered mid-conversation,
// e.g. via a "load_tool" builtin) take precedence on lookup (spec §4.5
// "Dynamic tools shadow static tools of the same name").
type Registry struct {
	static  map[string]Tool
	dynamic map[string]Tool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{static: map[string]Tool{}, dynamic: map[string]Tool{}}
}

// Register adds a static tool.
func (r *Registry) Register(t Tool) {
	r.static[t.Spec().Name] = t
}

// RegisterDynamic adds or replaces a dynamic tool, shadowing any static tool
// of the same name until RemoveDynamic is called.
func (r *Registry) RegisterDynamic(t Tool) {
	r.dynamic[t.Spec().Name] = t
}

// RemoveDynamic removes a dynamic tool, un-shadowing any static tool of the
// same name.
func (r *Registry) RemoveDynamic(name string) {
	delete(r.dynamic, name)
}

// Resolve looks up a tool by name, dynamic first, static second.
func (r *Registry) Resolve(name string) (Tool, bool) {
	if t, ok := r.dynamic[name]; ok {
		return t, true
	}
	t, ok := r.static[name]
	return t, ok
}

// Specs returns the ToolSpec for every currently resolvable tool, dynamic
// entries shadowing static ones of the same name, for inclusion in model
// requests (spec §4.5).
func (r *Registry) Specs() []model.ToolSpec {
	seen := map[string]bool{}
	var out []model.ToolSpec
	for name, t := range r.dynamic {
		out = append(out, t.Spec())
		seen[name] = true
	}
	for name, t := range r.static {
		if seen[name] {
			continue
		}
		out = append(out, t.Spec())
	}
	return out
}

var errStreamExhausted = &streamExhaustedError{}

type streamExhaustedError struct{}

func (*streamExhaustedError) Error() string { return "tools: stream exhausted" }
