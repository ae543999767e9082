// Package structuredoutput implements the structured output adapter (spec
// §4.9): a schema-driven synthetic tool that lets an invocation request a
// validated typed value instead of free-form text, without the core ever
// executing a real tool for that call.
package structuredoutput

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/agentcore/agentcore/model"
)

// ToolName is the fixed name of the synthetic tool injected into the model
// request when structured output is requested (spec §4.9).
const ToolName = "structured_output"

// Exception reports that the model's structured_output call failed schema
// validation. Validation failures never trigger an automatic retry; callers
// layer that via hooks if desired (spec §4.9).
type Exception struct {
	Report error
}

func (e *Exception) Error() string {
	return fmt.Sprintf("structured output validation failed: %v", e.Report)
}

func (e *Exception) Unwrap() error { return e.Report }

// Adapter converts a JSON-Schema document into the synthetic ToolSpec and
// validates candidate structured_output tool calls against it.
type Adapter struct {
	schema *jsonschema.Schema
	raw    json.RawMessage
}

// New compiles schema (already flattened: $refs resolved, nested
// definitions inlined, unsupported constructs removed) into an Adapter.
func New(schema json.RawMessage) (*Adapter, error) {
	var doc any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, fmt.Errorf("structuredoutput: unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(ToolName+".json", doc); err != nil {
		return nil, fmt.Errorf("structuredoutput: add schema resource: %w", err)
	}
	compiled, err := c.Compile(ToolName + ".json")
	if err != nil {
		return nil, fmt.Errorf("structuredoutput: compile schema: %w", err)
	}
	return &Adapter{schema: compiled, raw: schema}, nil
}

// Spec returns the synthetic ToolSpec to append to the tool specs passed to
// the model for this invocation only; it is never added to the agent's
// registry (spec §4.9 step 1).
func (a *Adapter) Spec(description string) model.ToolSpec {
	return model.ToolSpec{
		Name:        ToolName,
		Description: description,
		InputSchema: a.raw,
	}
}

// Validate checks input (the decoded tool_use.Input of a structured_output
// call) against the schema, returning its JSON round-tripped form (maps,
// slices, float64 numbers) on success or an *Exception on failure (spec §4.9
// step 2-3).
func (a *Adapter) Validate(input any) (any, error) {
	doc, err := roundTrip(input)
	if err != nil {
		return nil, fmt.Errorf("structuredoutput: normalize input: %w", err)
	}
	if err := a.schema.Validate(doc); err != nil {
		return nil, &Exception{Report: err}
	}
	return doc, nil
}

// StubResult synthesizes the success tool_result the core appends for a
// validated structured_output call, so history remains well-formed without
// a real tool having executed (spec §4.9 step 2).
func StubResult(toolUseID string) model.ContentBlock {
	return model.ToolResultBlock(toolUseID, model.ToolResultStatusSuccess, model.TextBlock("structured output captured"))
}

// roundTrip re-encodes and decodes input through JSON so values produced by
// the streaming assembler's tool-input parser (maps, slices, scalars) match
// what the schema validator expects of a decoded JSON document.
func roundTrip(input any) (any, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
