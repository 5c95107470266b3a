// SPDX-License-Identifier: Apache-2.0

package server

import "time"

type Config struct {
	// Address for the server to listen on. The format is "host:port". Defaults
	// to ":9800".
	Address string
	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Defaults to 10s.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Defaults to 10s.
	WriteTimeout time.Duration
	// MaxTableBytes limits the size of uploaded tables. Defaults to 32MiB.
	MaxTableBytes int64
}

const (
	defaultServerReadTimeout  = 10 * time.Second
	defaultServerWriteTimeout = 10 * time.Second
	defaultServerAddress      = ":9800"
	defaultMaxTableBytes      = 32 * 1024 * 1024
)

func (c *Config) readTimeout() time.Duration {
	if c.ReadTimeout > 0 {
		return c.ReadTimeout
	}
	return defaultServerReadTimeout
}

func (c *Config) writeTimeout() time.Duration {
	if c.WriteTimeout > 0 {
		return c.WriteTimeout
	}
	return defaultServerWriteTimeout
}

func (c *Config) address() string {
	if c.Address != "" {
		return c.Address
	}
	return defaultServerAddress
}

func (c *Config) maxTableBytes() int64 {
	if c.MaxTableBytes > 0 {
		return c.MaxTableBytes
	}
	return defaultMaxTableBytes
}
