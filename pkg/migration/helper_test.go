// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"github.com/xataio/csv2chain/pkg/contract"
)

func newVotingContract() *contract.Contract {
	return &contract.Contract{
		Name:    "V",
		Address: "0xABC",
		Functions: []contract.Function{
			{Name: "vote", Params: []contract.Param{{Name: "to", Type: "string"}, {Name: "amount", Type: "uint256"}}},
			{Name: "register", Params: []contract.Param{{Name: "voter", Type: "address"}, {Name: "name", Type: "bytes32"}, {Name: "weight", Type: "uint8"}}},
		},
		InheritedFunctions: []contract.Function{
			{Name: "transferOwnership", Params: []contract.Param{{Name: "newOwner", Type: "address"}}},
		},
	}
}

// newVoteModel returns a model with a single vote function mapping column 0
// to the recipient and column 1 to the amount.
func newVoteModel(columns int) *Model {
	m := NewModel()
	m.SetColumnCount(columns)
	i := m.AddFunction()
	m.SelectContract(i, newVotingContract())
	m.SelectFunction(i, "vote")
	m.SelectParameter(i, 0, "to")
	m.SelectParameter(i, 1, "amount")
	return m
}
