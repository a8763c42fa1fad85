// SPDX-License-Identifier: MIT

// Package retry wraps exponential backoff for the transient-failure classes
// of the extraction engines. Each operation class (youtube, url_api,
// url_network, audio, download) carries its own attempt and delay budget in
// the configuration; only errors classified as retryable are retried, and
// waits are interruptible through the context.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
)

// Do runs op under the given policy. MaxAttempts counts total invocations;
// a non-retryable error aborts immediately and is returned unchanged.
func Do(ctx context.Context, policy config.Retry, opName string, op func() error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.BaseDelay
	bo.MaxInterval = policy.MaxDelay
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0 // bounded by attempts, not wall time

	logger := log.FromContext(ctx)
	attempt := 0
	notify := func(err error, wait time.Duration) {
		logger.Warn().
			Str("operation", opName).
			Int(log.FieldAttempt, attempt).
			Dur("wait", wait).
			Err(err).
			Msg("transient failure, retrying")
	}

	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !exterr.KindOf(err).Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
	return backoff.RetryNotify(wrapped, b, notify)
}
