// Package invocation defines the per-call state the event loop, hooks, and
// tool executor thread through a single invocation (spec §3 "InvocationState").
//
// Source systems thread this data through dynamic **kwargs; Go has no
// equivalent, so InvocationState is modeled as an explicit record with
// well-known fields plus an open Extras map for caller-supplied values (DB
// handles, request IDs) and internal throttles (spec §9 design notes).
package invocation

import (
	"sync"

	"github.com/google/uuid"
)

// State is a per-call map carrying the current cycle's tracing IDs, the
// running request-state dict, user-supplied extras, and internal throttles.
// Its lifetime is one top-level Invoke/StreamAsync call (spec §3).
type State struct {
	mu sync.RWMutex

	// CycleID is a fresh UUID assigned at the start of each cycle (spec
	// §4.3 step 1).
	CycleID string

	// CycleCount is incremented once per recursion into event_loop_cycle
	// (spec §4.3 "Recursion bound").
	CycleCount int

	// RequestState is the running, caller-visible state dict returned as
	// AgentResult.State (spec §4.3 step 7, §4.6 step 5).
	RequestState map[string]any

	// Extras carries arbitrary caller-supplied values (DB handles, request
	// IDs) passed as kwargs to Invoke/StreamAsync.
	Extras map[string]any

	// ParentToolCallID correlates a nested invocation (agent-as-tool) to the
	// tool call that spawned it. Empty for top-level invocations.
	ParentToolCallID string

	// partialToolArgs accumulates live tool-use input fragments per tool-use
	// ID as they stream in. No accessor exposes it, and it is not merged into
	// callback events: those carry only the latest fragment.
	partialToolArgs map[string]string

	// structuredOutput holds the validated value captured from a synthetic
	// structured_output tool call, if one occurred this invocation (spec
	// §4.9 step 2).
	structuredOutput any
	hasStructuredOut  bool
}

// New constructs an InvocationState for a fresh top-level invocation.
func New(extras map[string]any) *State {
	if extras == nil {
		extras = map[string]any{}
	}
	return &State{
		RequestState:    map[string]any{},
		Extras:          extras,
		partialToolArgs: map[string]string{},
	}
}

// NewCycleID assigns and returns a fresh cycle identifier.
func (s *State) NewCycleID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CycleID = uuid.NewString()
	s.CycleCount++
	return s.CycleID
}

// AppendPartialToolArgs records an incremental JSON fragment for the tool
// call identified by id, returning the accumulated fragment so far. The
// event loop calls it for every tool-use delta and discards the returned
// value.
func (s *State) AppendPartialToolArgs(id, delta string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partialToolArgs[id] += delta
	return s.partialToolArgs[id]
}

// SetStructuredOutput records the validated value captured from a synthetic
// structured_output tool call.
func (s *State) SetStructuredOutput(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.structuredOutput = v
	s.hasStructuredOut = true
}

// StructuredOutput retrieves the value recorded by SetStructuredOutput, if
// any.
func (s *State) StructuredOutput() (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.structuredOutput, s.hasStructuredOut
}

// Get retrieves an Extras value.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Extras[key]
	return v, ok
}

// Set stores an Extras value.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Extras[key] = value
}
