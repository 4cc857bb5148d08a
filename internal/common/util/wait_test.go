package util

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestWaitFor_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := WaitFor(context.Background(), "immediate", time.Millisecond, 10*time.Millisecond, func() (bool, error) {
		calls++
		return true, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWaitFor_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := WaitFor(context.Background(), "eventually", time.Millisecond, time.Second, func() (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("not yet")
		}
		return calls >= 4, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, calls)
}

func TestWaitFor_Timeout(t *testing.T) {
	calls := 0
	err := WaitFor(context.Background(), "never", time.Millisecond, 5*time.Millisecond, func() (bool, error) {
		calls++
		return false, nil
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "never")
	assert.Equal(t, 6, calls)
}

func TestWaitFor_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitFor(ctx, "cancelled", time.Hour, 10*time.Hour, func() (bool, error) {
		return false, nil
	})
	assert.Error(t, err)
}
