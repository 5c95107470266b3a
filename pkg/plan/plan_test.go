// SPDX-License-Identifier: Apache-2.0

package plan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	chainmocks "github.com/xataio/csv2chain/pkg/chain/mocks"
	"github.com/xataio/csv2chain/pkg/contract"
	contractmocks "github.com/xataio/csv2chain/pkg/contract/mocks"
	"github.com/xataio/csv2chain/pkg/conversion"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/workspace"
)

const testPlan = `
table: voters.csv
functions:
  - contract: Voting
    function: vote
    columns:
      - {column: 0, parameter: to}
      - {column: 1, parameter: amount, conversion: none}
`

func newTestSession(t *testing.T, rawTable string) *workspace.Session {
	t.Helper()
	log := outputlog.New()
	provider := &contractmocks.Provider{
		ListContractsFn: func(ctx context.Context) ([]*contract.Contract, error) {
			return []*contract.Contract{
				{
					Name:    "Voting",
					Address: "0xABC",
					Functions: []contract.Function{
						{Name: "vote", Params: []contract.Param{{Name: "to"}, {Name: "amount"}}},
						{Name: "register", Params: []contract.Param{{Name: "voter"}, {Name: "name"}}},
					},
				},
			}, nil
		},
	}
	s := workspace.NewSession(provider, log, migration.NewExecutor(&chainmocks.Client{}, log))
	require.NoError(t, s.LoadTable(rawTable))
	return s
}

func TestParse(t *testing.T) {
	t.Parallel()

	p, err := Parse([]byte(testPlan))
	require.NoError(t, err)
	require.Equal(t, &Plan{
		Table: "voters.csv",
		Functions: []Function{
			{
				Contract: "Voting",
				Function: "vote",
				Columns: []Column{
					{Column: 0, Parameter: "to"},
					{Column: 1, Parameter: "amount", Conversion: "none"},
				},
			},
		},
	}, p)

	_, err = Parse([]byte("table: a.csv\nfunctionz: []\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(planPath, []byte(testPlan), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "voters.csv"), []byte("# voters\nAlice,100\nBob,200\n"), 0o600))

	p, err := Load(planPath)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "voters.csv"), p.Table)

	s := newTestSession(t, "")
	require.NoError(t, p.LoadTable(s))
	require.Equal(t, [][]string{{"Alice", "100"}, {"Bob", "200"}}, s.Table().Rows())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	require.ErrorIs(t, (&Plan{}).LoadTable(s), ErrMissingTable)
}

func TestPlan_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		plan *Plan

		wantErr      error
		wantMappings []*migration.ParameterMapping
	}{
		{
			name: "ok",
			plan: &Plan{Functions: []Function{
				{
					Contract: "Voting",
					Function: "vote",
					Columns: []Column{
						{Column: 1, Parameter: "to", Conversion: "utf8_to_bytes32"},
						{Column: 0, Parameter: "amount"},
					},
				},
			}},

			wantMappings: []*migration.ParameterMapping{
				{Column: 0, Parameter: "amount", Conversion: conversion.NoConversion{}},
				{Column: 1, Parameter: "to", Conversion: conversion.UTF8ToBytes32{}},
			},
		},
		{
			name:    "error - unknown contract",
			plan:    &Plan{Functions: []Function{{Contract: "Ballot", Function: "vote"}}},
			wantErr: workspace.ErrContractNotFound,
		},
		{
			name:    "error - unknown function",
			plan:    &Plan{Functions: []Function{{Contract: "Voting", Function: "unvote"}}},
			wantErr: ErrUnknownFunction,
		},
		{
			name: "error - unknown parameter",
			plan: &Plan{Functions: []Function{
				{Contract: "Voting", Function: "vote", Columns: []Column{{Column: 0, Parameter: "voter"}}},
			}},
			wantErr: ErrUnknownParameter,
		},
		{
			name: "error - column missing from the table",
			plan: &Plan{Functions: []Function{
				{Contract: "Voting", Function: "vote", Columns: []Column{{Column: 2, Parameter: "to"}}},
			}},
			wantErr: workspace.ErrColumnNotFound,
		},
		{
			name: "error - duplicate parameter",
			plan: &Plan{Functions: []Function{
				{Contract: "Voting", Function: "vote", Columns: []Column{{Column: 0, Parameter: "to"}, {Column: 1, Parameter: "to"}}},
			}},
			wantErr: ErrDuplicateParameter,
		},
		{
			name: "error - unknown conversion",
			plan: &Plan{Functions: []Function{
				{Contract: "Voting", Function: "vote", Columns: []Column{{Column: 0, Parameter: "to", Conversion: "base64"}}},
			}},
			wantErr: conversion.ErrUnknownConversion,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSession(t, "Alice,100\n")
			err := tc.plan.Apply(context.Background(), s)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				var issue *Issue
				require.True(t, errors.As(err, &issue))
				return
			}
			require.NoError(t, err)
			fns := s.Functions()
			require.Len(t, fns, 1)
			require.Equal(t, tc.wantMappings, fns[0].Mappings)
		})
	}
}

func TestPlan_Validate(t *testing.T) {
	t.Parallel()

	p := &Plan{Functions: []Function{
		{Contract: "Ballot", Function: "vote"},
		{Contract: "Voting", Function: "register", Columns: []Column{{Column: 0, Parameter: "voter"}, {Column: 3, Parameter: "name"}}},
		{Contract: "Voting", Function: "vote", Columns: []Column{{Column: 1, Parameter: "amount"}}},
	}}

	s := newTestSession(t, "0x01,Alice\n")
	issues, err := p.Validate(context.Background(), s)
	require.NoError(t, err)

	got := make([]int, 0, len(issues))
	for _, issue := range issues {
		got = append(got, issue.Function)
	}
	require.Equal(t, []int{0, 1, 1, 2}, got)
	require.ErrorIs(t, issues[0], workspace.ErrContractNotFound)
	require.ErrorIs(t, issues[1], workspace.ErrColumnNotFound)
	require.Equal(t, "function 1: parameter name of Voting.register is not mapped to any column", issues[2].Error())
	require.Equal(t, "function 2: parameter to of Voting.vote is not mapped to any column", issues[3].Error())
}
