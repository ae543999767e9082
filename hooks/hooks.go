// Package hooks implements a typed pub/sub keyed by event class, the
// runtime's primary extensibility surface (spec §4.4). Hook callbacks have
// signature func(ctx, Event) error; "Before…" events fire in registration
// order, "After…" events fire in reverse registration order (LIFO cleanup
// semantics).
package hooks

import (
	"context"
	"errors"
)

// EventType enumerates the lifecycle events the runtime publishes.
type EventType string

const (
	AgentInitialized EventType = "agent_initialized"
	BeforeInvocation EventType = "before_invocation"
	AfterInvocation  EventType = "after_invocation"
	MessageAdded     EventType = "message_added"
	BeforeModelCall  EventType = "before_model_call"
	AfterModelCall   EventType = "after_model_call"
	BeforeToolCall   EventType = "before_tool_call"
	AfterToolCall    EventType = "after_tool_call"
)

// Event is the interface all hook events implement. Concrete event types
// carry event-specific, possibly mutable, fields; subscribers access them by
// type-asserting to the concrete type named by Type().
type Event interface {
	Type() EventType
}

// CallbackFunc is the signature for hook callbacks. Returning a non-nil
// error does not suppress delivery to remaining callbacks of the same
// event — the dispatcher logs and continues, then propagates the first
// error encountered once all callbacks for this event have run (spec §7
// "Hook callback raised").
type CallbackFunc func(ctx context.Context, event Event) error

// errFirst tracks the first callback error seen during a Fire, to surface
// after every callback for the event has been attempted.
type errFirst struct {
	err error
}

func (e *errFirst) record(err error) {
	if err != nil && e.err == nil {
		e.err = err
	}
}

// Registry is a typed pub/sub keyed by EventType.
//
// Registry is safe to read from concurrently once construction (AddHook /
// AddCallback calls) has finished; per spec §5 "Shared resources", the
// contract only guarantees callbacks may be added during agent
// initialization.
type Registry struct {
	callbacks map[EventType][]registration
	seq       int
	logger    func(ctx context.Context, msg string, keyvals ...any)
}

type registration struct {
	seq int
	fn  CallbackFunc
}

// HookProvider is an object that registers a related family of callbacks in
// one call.
type HookProvider interface {
	RegisterHooks(registry *Registry)
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{callbacks: make(map[EventType][]registration)}
}

// SetLogger attaches a logging sink used to report callback errors that are
// swallowed while the dispatcher continues firing remaining callbacks.
func (r *Registry) SetLogger(fn func(ctx context.Context, msg string, keyvals ...any)) {
	r.logger = fn
}

// AddCallback appends fn to t's callback list in registration order (spec
// §4.4 "add_callback(EventType, fn) appends to that type's list in
// registration order"). fn must be non-nil; a nil fn is rejected with
// ErrNilSubscriber and never registered.
func (r *Registry) AddCallback(t EventType, fn CallbackFunc) error {
	if fn == nil {
		return ErrNilSubscriber
	}
	r.seq++
	r.callbacks[t] = append(r.callbacks[t], registration{seq: r.seq, fn: fn})
	return nil
}

// AddHook registers a HookProvider, invoking it exactly once (spec §4.4).
func (r *Registry) AddHook(p HookProvider) {
	p.RegisterHooks(r)
}

// isAfterEvent reports whether t is one of the three "After…" event types
// that fire in reverse registration order (spec §4.4).
func isAfterEvent(t EventType) bool {
	switch t {
	case AfterInvocation, AfterModelCall, AfterToolCall:
		return true
	default:
		return false
	}
}

// Fire dispatches event to every callback registered for event.Type().
// "Before…" events fire in registration order; "After…" events fire in
// reverse registration order (spec §4.4, §8 invariants 3-4).
//
// Every registered callback for the event is invoked regardless of earlier
// callback errors; the first error encountered is returned once dispatch
// completes (spec §7 "Hook callback raised").
func (r *Registry) Fire(ctx context.Context, event Event) error {
	regs := r.callbacks[event.Type()]
	if len(regs) == 0 {
		return nil
	}
	ordered := make([]registration, len(regs))
	copy(ordered, regs)
	if isAfterEvent(event.Type()) {
		for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		}
	}

	var first errFirst
	for _, reg := range ordered {
		if err := reg.fn(ctx, event); err != nil {
			if r.logger != nil {
				r.logger(ctx, "hooks: callback returned error", "event", string(event.Type()), "error", err)
			}
			first.record(err)
		}
	}
	return first.err
}

// ErrNilSubscriber is returned by AddCallback when a nil callback is
// supplied.
var ErrNilSubscriber = errors.New("hooks: callback is required")
