// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"github.com/xataio/csv2chain/internal/backoff"
	"github.com/xataio/csv2chain/pkg/outputlog/batch"
)

type Config struct {
	URL   string
	Batch batch.Config
	// Retry applies to transient errors writing batches. Defaults to an
	// exponential backoff.
	Retry *backoff.Config
}

func (c *Config) retryConfig() *backoff.Config {
	if c.Retry != nil {
		return c.Retry
	}
	return &backoff.Config{
		Exponential: &backoff.ExponentialConfig{
			InitialInterval: defaultInitialInterval,
			MaxInterval:     defaultMaxInterval,
			MaxRetries:      defaultMaxRetries,
		},
	}
}
