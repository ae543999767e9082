package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFireBeforeEventOrdersForward(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	var order []int
	r.AddCallback(BeforeInvocation, func(ctx context.Context, e Event) error {
		order = append(order, 1)
		return nil
	})
	r.AddCallback(BeforeInvocation, func(ctx context.Context, e Event) error {
		order = append(order, 2)
		return nil
	})
	require.NoError(t, r.Fire(ctx, &BeforeInvocationEvent{}))
	require.Equal(t, []int{1, 2}, order)
}

func TestFireAfterEventOrdersReverse(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	var order []int
	r.AddCallback(AfterInvocation, func(ctx context.Context, e Event) error {
		order = append(order, 1)
		return nil
	})
	r.AddCallback(AfterInvocation, func(ctx context.Context, e Event) error {
		order = append(order, 2)
		return nil
	})
	require.NoError(t, r.Fire(ctx, &AfterInvocationEvent{}))
	require.Equal(t, []int{2, 1}, order)
}

func TestFireRunsEveryCallbackAndReturnsFirstError(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	errA := errors.New("a")
	errB := errors.New("b")
	ran := 0
	r.AddCallback(BeforeInvocation, func(ctx context.Context, e Event) error {
		ran++
		return errA
	})
	r.AddCallback(BeforeInvocation, func(ctx context.Context, e Event) error {
		ran++
		return errB
	})
	err := r.Fire(ctx, &BeforeInvocationEvent{})
	require.ErrorIs(t, err, errA)
	require.Equal(t, 2, ran)
}

func TestFireNoSubscribersIsNoop(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Fire(context.Background(), &MessageAddedEvent{}))
}

type recordingProvider struct{ calls *int }

func (p recordingProvider) RegisterHooks(r *Registry) {
	r.AddCallback(AgentInitialized, func(ctx context.Context, e Event) error {
		*p.calls++
		return nil
	})
}

func TestAddCallbackRejectsNil(t *testing.T) {
	r := NewRegistry()
	err := r.AddCallback(BeforeInvocation, nil)
	require.ErrorIs(t, err, ErrNilSubscriber)
	require.NoError(t, r.Fire(context.Background(), &BeforeInvocationEvent{}))
}

func TestAddHookRegistersExactlyOnce(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.AddHook(recordingProvider{calls: &calls})
	require.NoError(t, r.Fire(context.Background(), &AgentInitializedEvent{}))
	require.Equal(t, 1, calls)
}
