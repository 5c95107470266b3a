// SPDX-License-Identifier: Apache-2.0

package server

import (
	"time"

	"github.com/xataio/csv2chain/pkg/contract"
	"github.com/xataio/csv2chain/pkg/conversion"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/table"
)

type errorResponse struct {
	Error string `json:"error"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type migrationRequest struct {
	From string `json:"from"`
}

type migrationResponse struct {
	RunID string `json:"run_id"`
}

type indexResponse struct {
	Index int `json:"index"`
}

type parametersResponse struct {
	Parameters []string `json:"parameters"`
}

type tableView struct {
	Rows    [][]string `json:"rows"`
	Columns int        `json:"columns"`
}

type functionView struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
}

type contractView struct {
	Name               string         `json:"name"`
	Address            string         `json:"address"`
	Functions          []functionView `json:"functions"`
	InheritedFunctions []functionView `json:"inherited_functions"`
}

type mappingView struct {
	Column     int    `json:"column"`
	Parameter  string `json:"parameter"`
	Conversion string `json:"conversion"`
}

type migrationFunctionView struct {
	Index    int            `json:"index"`
	Contract string         `json:"contract,omitempty"`
	Function *functionView  `json:"function,omitempty"`
	Mappings []*mappingView `json:"mappings"`
}

type messageView struct {
	Seq       int       `json:"seq"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Line      string    `json:"line"`
}

type logResponse struct {
	Messages []messageView `json:"messages"`
	Next     int           `json:"next"`
}

func newTableView(t *table.Table) tableView {
	rows := t.Rows()
	if rows == nil {
		rows = [][]string{}
	}
	return tableView{Rows: rows, Columns: t.Width()}
}

func newFunctionViews(fns []contract.Function) []functionView {
	views := make([]functionView, 0, len(fns))
	for _, fn := range fns {
		views = append(views, functionView{Name: fn.Name, Params: fn.ParamNames()})
	}
	return views
}

func newContractViews(contracts []*contract.Contract) []contractView {
	views := make([]contractView, 0, len(contracts))
	for _, c := range contracts {
		views = append(views, contractView{
			Name:               c.Name,
			Address:            c.Address,
			Functions:          newFunctionViews(c.Functions),
			InheritedFunctions: newFunctionViews(c.InheritedFunctions),
		})
	}
	return views
}

func newMigrationFunctionViews(fns []migration.FunctionSnapshot) []migrationFunctionView {
	views := make([]migrationFunctionView, 0, len(fns))
	for i, fn := range fns {
		view := migrationFunctionView{
			Index:    i,
			Mappings: make([]*mappingView, 0, len(fn.Mappings)),
		}
		if fn.Contract != nil {
			view.Contract = fn.Contract.Name
		}
		if fn.Function != nil {
			view.Function = &functionView{Name: fn.Function.Name, Params: fn.Function.ParamNames()}
		}
		for _, slot := range fn.Mappings {
			if slot == nil {
				view.Mappings = append(view.Mappings, nil)
				continue
			}
			view.Mappings = append(view.Mappings, &mappingView{
				Column:     slot.Column,
				Parameter:  slot.Parameter,
				Conversion: conversionName(slot.Conversion),
			})
		}
		views = append(views, view)
	}
	return views
}

func newLogResponse(msgs []outputlog.Message, since int) logResponse {
	resp := logResponse{
		Messages: make([]messageView, 0, len(msgs)),
		Next:     max(since, 0),
	}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, messageView{
			Seq:       m.Seq,
			RunID:     m.RunID,
			Timestamp: m.Timestamp,
			Text:      m.Text,
			Line:      m.String(),
		})
		resp.Next = m.Seq + 1
	}
	return resp
}

func conversionName(c conversion.Conversion) string {
	if c == nil {
		return conversion.NoConversion{}.Name()
	}
	return c.Name()
}
