// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"errors"

	"github.com/xataio/csv2chain/internal/backoff"
)

// Backoff runs the operation until it succeeds, fails permanently, or the
// configured attempts are exhausted. No time is spent waiting between
// attempts.
type Backoff struct {
	MaxAttempts int
}

func (m *Backoff) RetryNotify(op backoff.Operation, notify backoff.Notify) error {
	var err error
	for i := 0; i < m.MaxAttempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if errors.Is(err, backoff.ErrPermanent) {
			return err
		}
		if notify != nil {
			notify(err, 0)
		}
	}
	return err
}

func (m *Backoff) Retry(op backoff.Operation) error {
	return m.RetryNotify(op, nil)
}
