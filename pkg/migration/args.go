// SPDX-License-Identifier: Apache-2.0

package migration

import (
	"fmt"
	"strings"

	"github.com/xataio/csv2chain/pkg/conversion"
	"github.com/xataio/csv2chain/pkg/table"
)

// buildArgs assembles the positional arguments of the function for the table
// row. Every mapped cell is converted and placed at its parameter position.
// Unmapped parameters, and cells missing from the row, are nil. The first
// conversion error is returned along with the arguments assembled so far.
func buildArgs(fn FunctionSnapshot, t *table.Table, row int, u conversion.Utilities) ([]any, error) {
	args := make([]any, len(fn.Function.Params))
	var convErr error
	for _, slot := range fn.Mappings {
		if slot == nil {
			continue
		}
		pos := fn.Function.ParamIndex(slot.Parameter)
		if pos < 0 {
			continue
		}
		raw, found := t.Cell(row, slot.Column)
		if !found {
			continue
		}
		value, err := conversion.Convert(slot.Conversion, raw, u)
		if err != nil {
			if convErr == nil {
				convErr = err
			}
			continue
		}
		args[pos] = value
	}
	return args, convErr
}

func renderCall(fn FunctionSnapshot, args []any) string {
	rendered := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			rendered = append(rendered, "")
			continue
		}
		rendered = append(rendered, fmt.Sprint(arg))
	}
	return fmt.Sprintf("%s.%s(%s)", fn.Contract.Name, fn.Function.Name, strings.Join(rendered, ", "))
}
