// SPDX-License-Identifier: Apache-2.0

package mocks

import (
	"context"

	"github.com/xataio/csv2chain/pkg/contract"
)

type Provider struct {
	ListContractsFn func(ctx context.Context) ([]*contract.Contract, error)
}

func (m *Provider) ListContracts(ctx context.Context) ([]*contract.Contract, error) {
	return m.ListContractsFn(ctx)
}
