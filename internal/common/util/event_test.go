package util

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_SetOnce(t *testing.T) {
	e := NewEvent()
	assert.False(t, e.IsSet())
	assert.True(t, e.Set())
	assert.True(t, e.IsSet())
	assert.False(t, e.Set())
	assert.True(t, e.IsSet())
}

func TestEvent_ConcurrentSet(t *testing.T) {
	e := NewEvent()
	var transitions int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.Set() {
				atomic.AddInt32(&transitions, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), transitions)
}

func TestEvent_Wait(t *testing.T) {
	e := NewEvent()
	go func() {
		time.Sleep(10 * time.Millisecond)
		e.Set()
	}()
	require.NoError(t, e.Wait(context.Background()))
}

func TestEvent_WaitContextDone(t *testing.T) {
	e := NewEvent()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, e.Wait(ctx))
}

func TestContextWithEvent(t *testing.T) {
	e := NewEvent()
	ctx, cancel := ContextWithEvent(context.Background(), e)
	defer cancel()
	assert.NoError(t, ctx.Err())
	e.Set()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled when the event was set")
	}
}
