// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract is a deployed contract as described by the contract model.
type Contract struct {
	Name    string
	Address string
	// Functions are the functions declared by the contract itself.
	Functions []Function
	// InheritedFunctions are the functions declared by the contract parents,
	// resolved transitively.
	InheritedFunctions []Function
	// ABI is the descriptor used to encode calls. It includes the inherited
	// functions.
	ABI *abi.ABI
}

type Function struct {
	Name   string
	Params []Param
}

type Param struct {
	Name string
	Type string
}

// Provider supplies the contracts available to migrations.
type Provider interface {
	ListContracts(ctx context.Context) ([]*Contract, error)
}

// AllFunctions returns the union of the contract's own functions and its
// inherited ones. Function names are unique across the union, own functions
// take precedence.
func (c *Contract) AllFunctions() []Function {
	seen := make(map[string]struct{}, len(c.Functions)+len(c.InheritedFunctions))
	all := make([]Function, 0, len(c.Functions)+len(c.InheritedFunctions))
	for _, fns := range [][]Function{c.Functions, c.InheritedFunctions} {
		for _, fn := range fns {
			if _, found := seen[fn.Name]; found {
				continue
			}
			seen[fn.Name] = struct{}{}
			all = append(all, fn)
		}
	}
	return all
}

// Function looks up a function by name in the contract's own and inherited
// functions.
func (c *Contract) Function(name string) (Function, bool) {
	for _, fn := range c.AllFunctions() {
		if fn.Name == name {
			return fn, true
		}
	}
	return Function{}, false
}

// ParamIndex returns the position of the named parameter, or -1.
func (f Function) ParamIndex(name string) int {
	for i, p := range f.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (f Function) ParamNames() []string {
	names := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		names = append(names, p.Name)
	}
	return names
}

// Find returns the contract with the given name from the list on input.
func Find(contracts []*Contract, name string) (*Contract, bool) {
	for _, c := range contracts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// FunctionsFromABI returns the state changing functions declared in the ABI,
// sorted by name.
func FunctionsFromABI(a *abi.ABI) []Function {
	if a == nil {
		return nil
	}
	fns := make([]Function, 0, len(a.Methods))
	for _, m := range sortedMethods(a) {
		if m.IsConstant() {
			continue
		}
		// overloaded methods are keyed by their disambiguated name
		fn := Function{Name: m.Name, Params: make([]Param, 0, len(m.Inputs))}
		for _, in := range m.Inputs {
			fn.Params = append(fn.Params, Param{Name: in.Name, Type: in.Type.String()})
		}
		fns = append(fns, fn)
	}
	return fns
}
