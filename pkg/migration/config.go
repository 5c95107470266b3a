// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"errors"
	"fmt"
)

type Mode string

const (
	// SerialMode sends the calls of each signing account one at a time, in
	// the order they were scheduled.
	SerialMode Mode = "serial"
	// ConcurrentMode sends every call as soon as it's scheduled, up to the
	// configured number of calls in flight.
	ConcurrentMode Mode = "concurrent"
)

type ExecutorConfig struct {
	Mode        Mode
	MaxInFlight int
}

const defaultMaxInFlight = 16

var errUnknownMode = errors.New("unknown execution mode")

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", SerialMode:
		return SerialMode, nil
	case ConcurrentMode:
		return ConcurrentMode, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownMode, s)
	}
}

func (c *ExecutorConfig) mode() Mode {
	if c.Mode == "" {
		return SerialMode
	}
	return c.Mode
}

func (c *ExecutorConfig) maxInFlight() int64 {
	if c.MaxInFlight <= 0 {
		return defaultMaxInFlight
	}
	return int64(c.MaxInFlight)
}
