// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/xataio/csv2chain/pkg/contract"
)

type inheritanceResolver struct {
	artifacts map[string]*loadedArtifact
	// ancestors caches the linearised ancestors of each resolved contract,
	// nearest first
	ancestors map[string][]string
}

func newInheritanceResolver(artifacts map[string]*loadedArtifact) *inheritanceResolver {
	return &inheritanceResolver{
		artifacts: artifacts,
		ancestors: map[string][]string{},
	}
}

func (r *inheritanceResolver) resolve(name string) (*contract.Contract, error) {
	ancestors, err := r.ancestorsOf(name, nil)
	if err != nil {
		return nil, err
	}

	a := r.artifacts[name]
	parentABIs := make([]*abi.ABI, 0, len(ancestors))
	inherited := []contract.Function{}
	inheritedNames := map[string]struct{}{}
	for _, ancestor := range ancestors {
		parentABI := r.artifacts[ancestor].abi
		parentABIs = append(parentABIs, parentABI)
		for _, fn := range contract.FunctionsFromABI(parentABI) {
			if _, found := inheritedNames[fn.Name]; found {
				continue
			}
			inheritedNames[fn.Name] = struct{}{}
			inherited = append(inherited, fn)
		}
	}

	// compiled artifacts usually repeat the inherited functions in the child
	// abi, those are not considered declared by the child
	own := []contract.Function{}
	for _, fn := range contract.FunctionsFromABI(a.abi) {
		if _, found := inheritedNames[fn.Name]; found {
			continue
		}
		own = append(own, fn)
	}

	return &contract.Contract{
		Name:               name,
		Address:            a.address,
		Functions:          own,
		InheritedFunctions: inherited,
		ABI:                contract.MergeABIs(append([]*abi.ABI{a.abi}, parentABIs...)...),
	}, nil
}

// ancestorsOf returns the transitive parents of the contract, nearest first
// and without duplicates.
func (r *inheritanceResolver) ancestorsOf(name string, path []string) ([]string, error) {
	for _, visited := range path {
		if visited == name {
			return nil, fmt.Errorf("%w: %s", ErrInheritanceCycle, strings.Join(append(path, name), " -> "))
		}
	}
	if cached, found := r.ancestors[name]; found {
		return cached, nil
	}

	a, found := r.artifacts[name]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParent, name)
	}

	path = append(path, name)
	ancestors := []string{}
	seen := map[string]struct{}{}
	add := func(n string) {
		if _, found := seen[n]; !found {
			seen[n] = struct{}{}
			ancestors = append(ancestors, n)
		}
	}
	for _, parent := range a.entry.Inherits {
		if _, found := r.artifacts[parent]; !found {
			return nil, fmt.Errorf("%w: %s inherits from %s", ErrUnknownParent, name, parent)
		}
		add(parent)
	}
	for _, parent := range a.entry.Inherits {
		parentAncestors, err := r.ancestorsOf(parent, path)
		if err != nil {
			return nil, err
		}
		for _, ancestor := range parentAncestors {
			add(ancestor)
		}
	}

	r.ancestors[name] = ancestors
	return ancestors, nil
}
