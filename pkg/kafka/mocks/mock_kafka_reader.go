// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/xataio/csv2chain/pkg/kafka"
)

type Reader struct {
	FetchMessageFn func(context.Context, uint64) (*kafka.Message, error)
	CloseFn        func() error
	FetchCalls     uint64
}

func (m *Reader) FetchMessage(ctx context.Context) (*kafka.Message, error) {
	atomic.AddUint64(&m.FetchCalls, 1)
	return m.FetchMessageFn(ctx, m.GetFetchCalls())
}

func (m *Reader) Close() error {
	if m.CloseFn != nil {
		return m.CloseFn()
	}
	return nil
}

func (m *Reader) GetFetchCalls() uint64 {
	return atomic.LoadUint64(&m.FetchCalls)
}
