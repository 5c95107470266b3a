// SPDX-License-Identifier: Apache-2.0

package chain

import (
	"context"
	"fmt"

	"github.com/xataio/csv2chain/pkg/contract"
	"github.com/xataio/csv2chain/pkg/conversion"
)

// Client discovers accounts and submits function calls to deployed contracts.
type Client interface {
	Accounts(ctx context.Context) ([]string, error)
	// Call invokes the function on the contract deployed at the request
	// address, and returns once the call has been confirmed or has failed.
	Call(ctx context.Context, req *CallRequest) error
	Utilities() conversion.Utilities
}

type CallRequest struct {
	Contract *contract.Contract
	Address  string
	Function string
	// Args are positional, one per function parameter. Unmapped parameters
	// are nil.
	Args []any
	From string
}

// CallError is a failed function call. Message is the human readable reason
// reported by the chain (or the client when the call couldn't be submitted).
type CallError struct {
	Function string
	Message  string
	Err      error
}

func (e *CallError) Error() string {
	return e.Message
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func NewCallError(function string, err error) *CallError {
	return &CallError{
		Function: function,
		Message:  err.Error(),
		Err:      err,
	}
}

func (r *CallRequest) String() string {
	name := "<nil>"
	if r.Contract != nil {
		name = r.Contract.Name
	}
	return fmt.Sprintf("%s.%s@%s from %s", name, r.Function, r.Address, r.From)
}
