// SPDX-License-Identifier: Apache-2.0

package ethereum

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"github.com/xataio/csv2chain/pkg/contract"
)

const testABI = `[
	{"type":"function","name":"addVoter","stateMutability":"nonpayable","inputs":[{"name":"voter","type":"address"},{"name":"name","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"setScore","stateMutability":"nonpayable","inputs":[{"name":"id","type":"uint8"},{"name":"score","type":"int256"},{"name":"active","type":"bool"}],"outputs":[]},
	{"type":"function","name":"setTags","stateMutability":"nonpayable","inputs":[{"name":"tags","type":"string[]"},{"name":"pair","type":"uint256[2]"},{"name":"blob","type":"bytes"}],"outputs":[]}
]`

const (
	testVoter   = "0x00000000000000000000000000000000000000aa"
	testAddress = "0x00000000000000000000000000000000000000cc"
	testFrom    = "0x00000000000000000000000000000000000000ff"
)

func testContract(t *testing.T) *contract.Contract {
	t.Helper()
	a, err := abi.JSON(strings.NewReader(testABI))
	require.NoError(t, err)
	return &contract.Contract{
		Name:      "Voting",
		Address:   testAddress,
		Functions: contract.FunctionsFromABI(&a),
		ABI:       &a,
	}
}

type mockRPC struct {
	callContextFn func(ctx context.Context, result any, method string, args ...any) error
}

func (m *mockRPC) CallContext(ctx context.Context, result any, method string, args ...any) error {
	return m.callContextFn(ctx, result, method, args...)
}

type mockReceipts struct {
	transactionReceiptFn func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

func (m *mockReceipts) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return m.transactionReceiptFn(ctx, txHash)
}
