package util

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var errConditionNotMet = errors.New("condition not met")

// WaitFor polls condition every step until it returns true, returns an error, or timeout elapses.
// An error returned by condition is treated as "not yet" and retried.
func WaitFor(ctx context.Context, text string, step time.Duration, timeout time.Duration, condition func() (bool, error)) error {
	if step <= 0 || step > timeout {
		step = timeout
	}
	attempts := uint(1)
	if step > 0 {
		attempts = uint(timeout/step) + 1
	}
	err := retry.Do(
		func() error {
			ok, err := condition()
			if err != nil {
				return err
			}
			if !ok {
				return errConditionNotMet
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(step),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debugf("%s (attempt %d): %s", text, n+1, err)
		}),
	)
	return errors.WithMessagef(err, "gave up after %s: %s", timeout, text)
}
