// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"fmt"
	"slices"

	"github.com/xataio/csv2chain/pkg/contract"
	"github.com/xataio/csv2chain/pkg/conversion"
)

// Model holds the user configured migration functions. Every operation is
// total: unresolved selections leave the dependent state empty. Out of range
// indices are programming errors and panic.
//
// Model is not safe for concurrent use.
type Model struct {
	columns   int
	functions []*migrationFunction
}

type migrationFunction struct {
	contract *contract.Contract
	function *contract.Function
	// mappings has one slot per table column, nil when unset.
	mappings []*ParameterMapping
}

// ParameterMapping binds a table column to a function parameter.
type ParameterMapping struct {
	Column     int
	Parameter  string
	Conversion conversion.Conversion
}

// FunctionSnapshot is an immutable copy of a migration function.
type FunctionSnapshot struct {
	Contract *contract.Contract
	Function *contract.Function
	// Mappings has one entry per column the function was configured with.
	// Unset slots are nil.
	Mappings []*ParameterMapping
}

func NewModel() *Model {
	return &Model{}
}

// SetColumnCount records the width of the current table. Functions selected
// afterwards get one mapping slot per column. Existing mappings are left
// untouched.
func (m *Model) SetColumnCount(n int) {
	if n < 0 {
		panic(fmt.Sprintf("migration: negative column count %d", n))
	}
	m.columns = n
}

func (m *Model) ColumnCount() int {
	return m.columns
}

// AddFunction appends an empty migration function and returns its index.
func (m *Model) AddFunction() int {
	m.functions = append(m.functions, &migrationFunction{})
	return len(m.functions) - 1
}

// RemoveFunction deletes the migration function at index i. The indices of
// the functions after it shift down by one.
func (m *Model) RemoveFunction(i int) {
	m.mustFunction(i)
	m.functions = slices.Delete(m.functions, i, i+1)
}

// SelectContract sets the contract of the migration function, clearing its
// function and mappings.
func (m *Model) SelectContract(i int, c *contract.Contract) {
	fn := m.mustFunction(i)
	fn.contract = c
	fn.function = nil
	fn.mappings = nil
}

// SelectFunction selects the named function among the contract's own and
// inherited functions, and resets the mappings to one unset slot per table
// column. An unknown name, or a missing contract, clears the function.
func (m *Model) SelectFunction(i int, name string) {
	fn := m.mustFunction(i)
	fn.function = nil
	fn.mappings = nil
	if fn.contract == nil || name == "" {
		return
	}
	f, found := fn.contract.Function(name)
	if !found {
		return
	}
	fn.function = &f
	fn.mappings = make([]*ParameterMapping, m.columns)
}

// SelectParameter maps the column to the named parameter using no
// conversion. A parameter already mapped to another column is released from
// it first. An empty or unknown name clears the slot.
func (m *Model) SelectParameter(i, col int, name string) {
	fn := m.mustFunction(i)
	fn.mustColumn(i, col)

	if name == "" || fn.function == nil || fn.function.ParamIndex(name) < 0 {
		fn.mappings[col] = nil
		return
	}

	for c, slot := range fn.mappings {
		if c != col && slot != nil && slot.Parameter == name {
			fn.mappings[c] = nil
		}
	}
	fn.mappings[col] = &ParameterMapping{
		Column:     col,
		Parameter:  name,
		Conversion: conversion.NoConversion{},
	}
}

// SelectConversion updates the conversion of a mapped column. It does nothing
// when the column is unmapped.
func (m *Model) SelectConversion(i, col int, c conversion.Conversion) {
	fn := m.mustFunction(i)
	fn.mustColumn(i, col)

	slot := fn.mappings[col]
	if slot == nil {
		return
	}
	if c == nil {
		c = conversion.NoConversion{}
	}
	slot.Conversion = c
}

// SelectableParameters returns the parameter names that can be mapped to the
// column, in declaration order: every parameter of the selected function
// except the ones mapped to other columns.
func (m *Model) SelectableParameters(i, col int) []string {
	fn := m.mustFunction(i)
	fn.mustColumn(i, col)

	taken := make(map[string]struct{}, len(fn.mappings))
	for c, slot := range fn.mappings {
		if c != col && slot != nil {
			taken[slot.Parameter] = struct{}{}
		}
	}

	names := []string{}
	for _, p := range fn.function.Params {
		if _, found := taken[p.Name]; !found {
			names = append(names, p.Name)
		}
	}
	return names
}

// Function returns a snapshot of the migration function at index i.
func (m *Model) Function(i int) FunctionSnapshot {
	return m.mustFunction(i).snapshot()
}

// Functions returns a snapshot of all the migration functions, in insertion
// order.
func (m *Model) Functions() []FunctionSnapshot {
	snapshots := make([]FunctionSnapshot, 0, len(m.functions))
	for _, fn := range m.functions {
		snapshots = append(snapshots, fn.snapshot())
	}
	return snapshots
}

func (m *Model) Len() int {
	return len(m.functions)
}

func (m *Model) mustFunction(i int) *migrationFunction {
	if i < 0 || i >= len(m.functions) {
		panic(fmt.Sprintf("migration: function index %d out of range [0, %d)", i, len(m.functions)))
	}
	return m.functions[i]
}

func (fn *migrationFunction) mustColumn(i, col int) {
	if col < 0 || col >= len(fn.mappings) {
		panic(fmt.Sprintf("migration: column index %d out of range [0, %d) for function %d", col, len(fn.mappings), i))
	}
}

func (fn *migrationFunction) snapshot() FunctionSnapshot {
	s := FunctionSnapshot{Contract: fn.contract}
	if fn.function != nil {
		f := contract.Function{
			Name:   fn.function.Name,
			Params: slices.Clone(fn.function.Params),
		}
		s.Function = &f
	}
	if fn.mappings != nil {
		s.Mappings = make([]*ParameterMapping, len(fn.mappings))
		for c, slot := range fn.mappings {
			if slot != nil {
				copied := *slot
				s.Mappings[c] = &copied
			}
		}
	}
	return s
}

// Complete returns true when both the contract and the function are
// selected.
func (s FunctionSnapshot) Complete() bool {
	return s.Contract != nil && s.Function != nil
}

// Name renders the function as Contract.function, with placeholders for the
// missing selections.
func (s FunctionSnapshot) Name() string {
	contractName, functionName := "?", "?"
	if s.Contract != nil {
		contractName = s.Contract.Name
	}
	if s.Function != nil {
		functionName = s.Function.Name
	}
	return contractName + "." + functionName
}

// UnmappedParameters returns the names of the function parameters no column
// is mapped to, in declaration order.
func (s FunctionSnapshot) UnmappedParameters() []string {
	if s.Function == nil {
		return nil
	}
	mapped := make(map[string]struct{}, len(s.Mappings))
	for _, slot := range s.Mappings {
		if slot != nil {
			mapped[slot.Parameter] = struct{}{}
		}
	}
	unmapped := []string{}
	for _, p := range s.Function.Params {
		if _, found := mapped[p.Name]; !found {
			unmapped = append(unmapped, p.Name)
		}
	}
	return unmapped
}

// DanglingColumns returns the mapped columns at or beyond the given table
// width.
func (s FunctionSnapshot) DanglingColumns(width int) []int {
	dangling := []int{}
	for _, slot := range s.Mappings {
		if slot != nil && slot.Column >= width {
			dangling = append(dangling, slot.Column)
		}
	}
	return dangling
}
