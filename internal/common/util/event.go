package util

import (
	"context"
	"sync"
)

// Event is a one-shot signal. It starts unset and transitions to set exactly once,
// no matter how many goroutines call Set.
type Event struct {
	once sync.Once
	done chan struct{}
}

func NewEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// Set marks the event as set. Returns true only for the call that performed the transition.
func (e *Event) Set() bool {
	fired := false
	e.once.Do(func() {
		close(e.done)
		fired = true
	})
	return fired
}

func (e *Event) IsSet() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that's closed once the event is set.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the event is set or ctx is done.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ContextWithEvent returns a copy of parent that is cancelled when e is set.
func ContextWithEvent(parent context.Context, e *Event) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-e.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
