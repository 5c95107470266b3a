// SPDX-License-Identifier: Apache-2.0

package ethereum

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/tidwall/gjson"
	"github.com/xataio/csv2chain/pkg/contract"
)

var (
	ErrUnknownFunction = errors.New("unknown function")

	errMissingABI       = errors.New("contract has no ABI")
	errArgCount         = errors.New("unexpected number of arguments")
	errInvalidInteger   = errors.New("invalid integer")
	errIntegerOverflow  = errors.New("integer out of range")
	errInvalidAddress   = errors.New("invalid address")
	errValueTooLong     = errors.New("value longer than the fixed size")
	errInvalidList      = errors.New("expected a JSON array")
	errUnsupportedType  = errors.New("unsupported parameter type")
	errUnsupportedValue = errors.New("unsupported value")
	errArrayLenMismatch = errors.New("array length mismatch")
	bigIntType          = reflect.TypeOf(&big.Int{})
)

// packCall coerces the positional arguments into the Go types of the function
// inputs and returns the ABI encoded call data.
func packCall(c *contract.Contract, function string, args []any) ([]byte, error) {
	if c == nil || c.ABI == nil {
		return nil, errMissingABI
	}
	method, found := c.ABI.Methods[function]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, function)
	}
	if len(args) != len(method.Inputs) {
		return nil, fmt.Errorf("%w: %s expects %d, got %d", errArgCount, function, len(method.Inputs), len(args))
	}

	values := make([]any, 0, len(args))
	for i, input := range method.Inputs {
		name := input.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if args[i] == nil {
			return nil, fmt.Errorf("missing value for parameter %s", name)
		}
		v, err := coerceArg(input.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid value for parameter %s: %w", name, err)
		}
		values = append(values, v)
	}

	return c.ABI.Pack(function, values...)
}

// coerceArg converts v into the Go type the ABI encoder expects for t. Values
// already of that type are returned as is, strings are parsed.
func coerceArg(t abi.Type, v any) (any, error) {
	if reflect.TypeOf(v) == t.GetType() {
		return v, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %T", errUnsupportedValue, v)
	}

	switch t.T {
	case abi.IntTy, abi.UintTy:
		return coerceInteger(t, s)
	case abi.BoolTy:
		return strconv.ParseBool(strings.TrimSpace(s))
	case abi.StringTy:
		return s, nil
	case abi.AddressTy:
		s = strings.TrimSpace(s)
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%w: %q", errInvalidAddress, s)
		}
		return common.HexToAddress(s), nil
	case abi.BytesTy:
		return hexutil.Decode(strings.TrimSpace(s))
	case abi.FixedBytesTy:
		return coerceFixedBytes(t, s)
	case abi.SliceTy, abi.ArrayTy:
		return coerceList(t, s)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedType, t.String())
	}
}

func coerceInteger(t abi.Type, s string) (any, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errInvalidInteger, s)
	}
	if !fitsInteger(t, n) {
		return nil, fmt.Errorf("%w: %s does not fit %s", errIntegerOverflow, n, t.String())
	}

	target := t.GetType()
	if target == bigIntType {
		return n, nil
	}
	rv := reflect.New(target).Elem()
	if t.T == abi.IntTy {
		rv.SetInt(n.Int64())
	} else {
		rv.SetUint(n.Uint64())
	}
	return rv.Interface(), nil
}

func fitsInteger(t abi.Type, n *big.Int) bool {
	if t.T == abi.UintTy {
		return n.Sign() >= 0 && n.BitLen() <= t.Size
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	minValue := new(big.Int).Neg(limit)
	maxValue := new(big.Int).Sub(limit, big.NewInt(1))
	return n.Cmp(minValue) >= 0 && n.Cmp(maxValue) <= 0
}

// coerceFixedBytes decodes the hex value and right pads it with zeros to the
// fixed size.
func coerceFixedBytes(t abi.Type, s string) (any, error) {
	b, err := hexutil.Decode(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(b) > t.Size {
		return nil, fmt.Errorf("%w: %d > %d", errValueTooLong, len(b), t.Size)
	}
	arr := reflect.New(t.GetType()).Elem()
	reflect.Copy(arr, reflect.ValueOf(b))
	return arr.Interface(), nil
}

// coerceList parses a JSON array and coerces every element into the element
// type.
func coerceList(t abi.Type, s string) (any, error) {
	parsed := gjson.Parse(strings.TrimSpace(s))
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%w: %q", errInvalidList, s)
	}
	elems := parsed.Array()
	if t.T == abi.ArrayTy && len(elems) != t.Size {
		return nil, fmt.Errorf("%w: expected %d elements, got %d", errArrayLenMismatch, t.Size, len(elems))
	}

	var list reflect.Value
	if t.T == abi.ArrayTy {
		list = reflect.New(t.GetType()).Elem()
	} else {
		list = reflect.MakeSlice(t.GetType(), len(elems), len(elems))
	}
	for i, elem := range elems {
		raw := elem.Raw
		if elem.Type == gjson.String {
			raw = elem.Str
		}
		v, err := coerceArg(*t.Elem, raw)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		list.Index(i).Set(reflect.ValueOf(v))
	}
	return list.Interface(), nil
}
