// SPDX-License-Identifier: Apache-2.0

package contract

import (
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

func sortedMethods(a *abi.ABI) []abi.Method {
	methods := make([]abi.Method, 0, len(a.Methods))
	for _, m := range a.Methods {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].Name < methods[j].Name
	})
	return methods
}

// MergeABIs returns a new ABI with the methods of all the ABIs on input. When
// a method name is declared more than once, the first declaration wins.
func MergeABIs(abis ...*abi.ABI) *abi.ABI {
	merged := &abi.ABI{
		Methods: map[string]abi.Method{},
		Events:  map[string]abi.Event{},
		Errors:  map[string]abi.Error{},
	}
	for _, a := range abis {
		if a == nil {
			continue
		}
		for name, m := range a.Methods {
			if _, found := merged.Methods[name]; !found {
				merged.Methods[name] = m
			}
		}
		for name, e := range a.Events {
			if _, found := merged.Events[name]; !found {
				merged.Events[name] = e
			}
		}
		for name, e := range a.Errors {
			if _, found := merged.Errors[name]; !found {
				merged.Errors[name] = e
			}
		}
	}
	return merged
}
