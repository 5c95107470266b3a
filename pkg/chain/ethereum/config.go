// SPDX-License-Identifier: Apache-2.0

package ethereum

import (
	"time"

	tlslib "github.com/xataio/csv2chain/pkg/tls"
)

type Config struct {
	// URL of the JSON-RPC endpoint of the node (http(s) or ws(s)).
	URL string
	TLS tlslib.Config
	// ReceiptPollInterval is how often the transaction receipt is requested
	// while waiting for a transaction to be mined. Defaults to 1s.
	ReceiptPollInterval time.Duration
	// ReceiptTimeout is the maximum time waiting for a transaction to be
	// mined. Defaults to 2m.
	ReceiptTimeout time.Duration
	// GasLimit used for the submitted transactions. If not set, the node
	// estimates it.
	GasLimit uint64
}

const (
	defaultReceiptPollInterval = time.Second
	defaultReceiptTimeout      = 2 * time.Minute
)

func (c *Config) receiptPollInterval() time.Duration {
	if c.ReceiptPollInterval > 0 {
		return c.ReceiptPollInterval
	}
	return defaultReceiptPollInterval
}

func (c *Config) receiptTimeout() time.Duration {
	if c.ReceiptTimeout > 0 {
		return c.ReceiptTimeout
	}
	return defaultReceiptTimeout
}

// receiptMaxRetries converts the receipt timeout into a number of polls.
func (c *Config) receiptMaxRetries() uint {
	retries := uint(c.receiptTimeout() / c.receiptPollInterval())
	if retries == 0 {
		return 1
	}
	return retries
}
