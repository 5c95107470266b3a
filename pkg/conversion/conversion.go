// SPDX-License-Identifier: Apache-2.0

package conversion

import (
	"errors"
	"fmt"
)

// Conversion is a pure transform applied to a raw cell value before it's used
// as a call argument. The set of conversions is closed: only the types in this
// package implement it.
type Conversion interface {
	Name() string
	isConversion()
}

// Utilities are the chain level encoding helpers conversions rely on.
type Utilities interface {
	UTF8ToFixedBytes(s string) (string, error)
}

// NoConversion returns the raw value unchanged.
type NoConversion struct{}

// UTF8ToBytes32 encodes a UTF-8 string into its fixed width byte
// representation, as produced by the chain utilities.
type UTF8ToBytes32 struct{}

const (
	noConversionName  = "none"
	utf8ToBytes32Name = "utf8_to_bytes32"
)

var (
	ErrUnknownConversion = errors.New("unknown conversion")
	errNoUtilities       = errors.New("no chain utilities available")
)

func (NoConversion) Name() string  { return noConversionName }
func (UTF8ToBytes32) Name() string { return utf8ToBytes32Name }

func (NoConversion) isConversion()  {}
func (UTF8ToBytes32) isConversion() {}

// All returns every available conversion, in declaration order.
func All() []Conversion {
	return []Conversion{NoConversion{}, UTF8ToBytes32{}}
}

// Parse returns the conversion with the given name. An empty name is
// NoConversion.
func Parse(name string) (Conversion, error) {
	switch name {
	case "", noConversionName:
		return NoConversion{}, nil
	case utf8ToBytes32Name:
		return UTF8ToBytes32{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConversion, name)
	}
}

// Convert applies the conversion to the raw value. It only fails when the chain
// utilities fail to encode the value.
func Convert(c Conversion, raw string, u Utilities) (any, error) {
	switch c.(type) {
	case nil, NoConversion:
		return raw, nil
	case UTF8ToBytes32:
		if u == nil {
			return nil, errNoUtilities
		}
		encoded, err := u.UTF8ToFixedBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("converting %q to bytes32: %w", raw, err)
		}
		return encoded, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownConversion, c)
	}
}
