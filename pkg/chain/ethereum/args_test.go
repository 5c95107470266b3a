// SPDX-License-Identifier: Apache-2.0

package ethereum

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCoerceArg(t *testing.T) {
	t.Parallel()

	newType := func(s string) abi.Type {
		typ, err := abi.NewType(s, "", nil)
		require.NoError(t, err)
		return typ
	}

	name := [32]byte{}
	copy(name[:], "Alice")

	tests := []struct {
		name  string
		typ   string
		value any

		wantValue any
		wantErr   error
	}{
		{name: "uint8", typ: "uint8", value: "42", wantValue: uint8(42)},
		{name: "uint8 overflow", typ: "uint8", value: "256", wantErr: errIntegerOverflow},
		{name: "uint negative", typ: "uint64", value: "-1", wantErr: errIntegerOverflow},
		{name: "int256 hex", typ: "int256", value: "0x10", wantValue: big.NewInt(16)},
		{name: "int8 min", typ: "int8", value: "-128", wantValue: int8(-128)},
		{name: "int8 underflow", typ: "int8", value: "-129", wantErr: errIntegerOverflow},
		{name: "invalid integer", typ: "uint256", value: "abc", wantErr: errInvalidInteger},
		{name: "bool", typ: "bool", value: "true", wantValue: true},
		{name: "string", typ: "string", value: " spaced ", wantValue: " spaced "},
		{name: "address", typ: "address", value: testVoter, wantValue: common.HexToAddress(testVoter)},
		{name: "invalid address", typ: "address", value: "0x12", wantErr: errInvalidAddress},
		{name: "bytes", typ: "bytes", value: "0x0102", wantValue: []byte{1, 2}},
		{name: "bytes32 right padded", typ: "bytes32", value: "0x416c696365", wantValue: name},
		{name: "bytes2 too long", typ: "bytes2", value: "0x010203", wantErr: errValueTooLong},
		{name: "string slice", typ: "string[]", value: `["a","b"]`, wantValue: []string{"a", "b"}},
		{name: "fixed array", typ: "uint8[2]", value: `[1,"2"]`, wantValue: [2]uint8{1, 2}},
		{name: "fixed array len mismatch", typ: "uint8[2]", value: `[1]`, wantErr: errArrayLenMismatch},
		{name: "not a list", typ: "uint8[]", value: `1`, wantErr: errInvalidList},
		{name: "already typed", typ: "uint8", value: uint8(7), wantValue: uint8(7)},
		{name: "unsupported value", typ: "uint8", value: 3.5, wantErr: errUnsupportedValue},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := coerceArg(newType(tc.typ), tc.value)
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantValue, got)
		})
	}
}

func TestCoerceArg_Uint64Roundtrip(t *testing.T) {
	t.Parallel()

	typ, err := abi.NewType("uint64", "", nil)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64().Draw(t, "n")
		got, err := coerceArg(typ, fmt.Sprintf("%d", n))
		require.NoError(t, err)
		require.Equal(t, n, got)
	})
}

func TestPackCall(t *testing.T) {
	t.Parallel()

	c := testContract(t)

	tests := []struct {
		name     string
		function string
		args     []any

		wantErr    error
		wantErrMsg string
	}{
		{
			name:     "ok",
			function: "setScore",
			args:     []any{"1", "-5", "false"},
		},
		{
			name:       "missing value",
			function:   "addVoter",
			args:       []any{testVoter, nil},
			wantErrMsg: "missing value for parameter name",
		},
		{
			name:       "invalid value",
			function:   "addVoter",
			args:       []any{"nope", "0x00"},
			wantErr:    errInvalidAddress,
			wantErrMsg: `invalid value for parameter voter: invalid address: "nope"`,
		},
		{
			name:     "unknown function",
			function: "removeVoter",
			args:     []any{},
			wantErr:  ErrUnknownFunction,
		},
		{
			name:     "argument count",
			function: "setScore",
			args:     []any{"1"},
			wantErr:  errArgCount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := packCall(c, tc.function, tc.args)
			if tc.wantErr == nil && tc.wantErrMsg == "" {
				require.NoError(t, err)
				require.Equal(t, c.ABI.Methods[tc.function].ID, data[:4])
				return
			}
			require.Error(t, err)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantErrMsg != "" {
				require.EqualError(t, err, tc.wantErrMsg)
			}
		})
	}
}
