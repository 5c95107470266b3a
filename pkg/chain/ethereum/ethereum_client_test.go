// SPDX-License-Identifier: Apache-2.0

package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"github.com/xataio/csv2chain/internal/backoff"
	backoffmocks "github.com/xataio/csv2chain/internal/backoff/mocks"
	"github.com/xataio/csv2chain/pkg/chain"
)

func TestClient_Accounts(t *testing.T) {
	t.Parallel()

	errTest := errors.New("oh noes")

	tests := []struct {
		name string
		rpc  *mockRPC

		wantAccounts []string
		wantErr      error
	}{
		{
			name: "ok",
			rpc: &mockRPC{
				callContextFn: func(ctx context.Context, result any, method string, args ...any) error {
					require.Equal(t, "eth_accounts", method)
					accounts, ok := result.(*[]common.Address)
					require.True(t, ok)
					*accounts = []common.Address{common.HexToAddress(testFrom), common.HexToAddress(testVoter)}
					return nil
				},
			},
			wantAccounts: []string{
				common.HexToAddress(testFrom).Hex(),
				common.HexToAddress(testVoter).Hex(),
			},
		},
		{
			name: "ok - no accounts",
			rpc: &mockRPC{
				callContextFn: func(ctx context.Context, result any, method string, args ...any) error {
					return nil
				},
			},
			wantAccounts: []string{},
		},
		{
			name: "error",
			rpc: &mockRPC{
				callContextFn: func(ctx context.Context, result any, method string, args ...any) error {
					return errTest
				},
			},
			wantErr: errTest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newClient(tc.rpc, nil, &Config{})
			accounts, err := c.Accounts(context.Background())
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, tc.wantAccounts, accounts)
		})
	}
}

func TestClient_Call(t *testing.T) {
	t.Parallel()

	testHash := common.HexToHash("0x01")
	errTest := errors.New("oh noes")
	testContract := testContract(t)

	sendOK := func(t *testing.T) *mockRPC {
		return &mockRPC{
			callContextFn: func(ctx context.Context, result any, method string, args ...any) error {
				require.Equal(t, "eth_sendTransaction", method)
				require.Len(t, args, 1)
				txArgs, ok := args[0].(sendTxArgs)
				require.True(t, ok)
				require.Equal(t, testFrom, txArgs.From)
				require.Equal(t, testAddress, txArgs.To)
				require.Equal(t, testContract.ABI.Methods["addVoter"].ID, []byte(txArgs.Data[:4]))
				require.Nil(t, txArgs.Gas)
				*(result.(*common.Hash)) = testHash
				return nil
			},
		}
	}

	minedReceipt := func(status uint64) *mockReceipts {
		return &mockReceipts{
			transactionReceiptFn: func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
				require.Equal(t, testHash, txHash)
				return &types.Receipt{Status: status, BlockNumber: big.NewInt(7)}, nil
			},
		}
	}

	testRequest := func(args ...any) *chain.CallRequest {
		return &chain.CallRequest{
			Contract: testContract,
			Address:  testAddress,
			Function: "addVoter",
			Args:     args,
			From:     testFrom,
		}
	}

	tests := []struct {
		name     string
		rpc      func(t *testing.T) *mockRPC
		receipts *mockReceipts
		req      *chain.CallRequest

		wantErr    error
		wantErrMsg string
	}{
		{
			name:     "ok",
			rpc:      sendOK,
			receipts: minedReceipt(types.ReceiptStatusSuccessful),
			req:      testRequest(testVoter, "0x416c696365"),
		},
		{
			name: "ok - receipt available after polling",
			rpc:  sendOK,
			receipts: func() *mockReceipts {
				polls := 0
				return &mockReceipts{
					transactionReceiptFn: func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
						polls++
						if polls < 3 {
							return nil, geth.NotFound
						}
						return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7)}, nil
					},
				}
			}(),
			req: testRequest(testVoter, "0x416c696365"),
		},
		{
			name:       "error - reverted",
			rpc:        sendOK,
			receipts:   minedReceipt(types.ReceiptStatusFailed),
			req:        testRequest(testVoter, "0x416c696365"),
			wantErr:    ErrTransactionReverted,
			wantErrMsg: "transaction reverted",
		},
		{
			name: "error - receipt timeout",
			rpc:  sendOK,
			receipts: &mockReceipts{
				transactionReceiptFn: func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
					return nil, geth.NotFound
				},
			},
			req:     testRequest(testVoter, "0x416c696365"),
			wantErr: ErrReceiptTimeout,
		},
		{
			name: "error - fetching receipt",
			rpc:  sendOK,
			receipts: &mockReceipts{
				transactionReceiptFn: func(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
					return nil, errTest
				},
			},
			req:     testRequest(testVoter, "0x416c696365"),
			wantErr: errTest,
		},
		{
			name: "error - sending transaction",
			rpc: func(t *testing.T) *mockRPC {
				return &mockRPC{
					callContextFn: func(ctx context.Context, result any, method string, args ...any) error {
						return errTest
					},
				}
			},
			req:        testRequest(testVoter, "0x416c696365"),
			wantErr:    errTest,
			wantErrMsg: "oh noes",
		},
		{
			name:       "error - missing value",
			rpc:        sendOK,
			req:        testRequest(testVoter, nil),
			wantErrMsg: "missing value for parameter name",
		},
		{
			name: "error - no sender",
			rpc:  sendOK,
			req: func() *chain.CallRequest {
				r := testRequest(testVoter, "0x00")
				r.From = ""
				return r
			}(),
			wantErr: errNoSender,
		},
		{
			name: "error - invalid contract address",
			rpc:  sendOK,
			req: func() *chain.CallRequest {
				r := testRequest(testVoter, "0x00")
				r.Address = "not an address"
				return r
			}(),
			wantErr: errInvalidContract,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newClient(tc.rpc(t), tc.receipts, &Config{},
				withBackoffProvider(func(ctx context.Context) backoff.Backoff {
					return &backoffmocks.Backoff{MaxAttempts: 3}
				}))

			err := c.Call(context.Background(), tc.req)
			if tc.wantErr == nil && tc.wantErrMsg == "" {
				require.NoError(t, err)
				return
			}

			var callErr *chain.CallError
			require.ErrorAs(t, err, &callErr)
			require.Equal(t, tc.req.Function, callErr.Function)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}
			if tc.wantErrMsg != "" {
				require.EqualError(t, err, tc.wantErrMsg)
			}
		})
	}
}

func TestConfig_ReceiptMaxRetries(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint(120), (&Config{}).receiptMaxRetries())
	require.Equal(t, uint(1), (&Config{ReceiptPollInterval: 2 * time.Second, ReceiptTimeout: time.Second}).receiptMaxRetries())
}
