// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/csv2chain/pkg/chain"
	"github.com/xataio/csv2chain/pkg/conversion"
)

type Client struct {
	AccountsFn  func(ctx context.Context) ([]string, error)
	CallFn      func(ctx context.Context, i uint64, req *chain.CallRequest) error
	UtilitiesFn func() conversion.Utilities
	callCalls   uint64
}

func (m *Client) Accounts(ctx context.Context) ([]string, error) {
	return m.AccountsFn(ctx)
}

func (m *Client) Call(ctx context.Context, req *chain.CallRequest) error {
	i := atomic.AddUint64(&m.callCalls, 1)
	return m.CallFn(ctx, i, req)
}

func (m *Client) Utilities() conversion.Utilities {
	if m.UtilitiesFn == nil {
		return nil
	}
	return m.UtilitiesFn()
}

func (m *Client) GetCallCalls() uint64 {
	return atomic.LoadUint64(&m.callCalls)
}

type Utilities struct {
	UTF8ToFixedBytesFn func(s string) (string, error)
}

func (m *Utilities) UTF8ToFixedBytes(s string) (string, error) {
	return m.UTF8ToFixedBytesFn(s)
}
