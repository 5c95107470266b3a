// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Tx interface {
	Exec(ctx context.Context, query string, args ...any) (CommandTag, error)
	CopyFrom(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error)
}

type Txn struct {
	pgx.Tx
}

func (t *Txn) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	tag, err := t.Tx.Exec(ctx, query, args...)
	return CommandTag{tag}, MapError(err)
}

func (t *Txn) CopyFrom(ctx context.Context, tableName string, columnNames []string, srcRows [][]any) (int64, error) {
	identifier, err := newIdentifier(tableName)
	if err != nil {
		return -1, err
	}

	// CopyFrom sanitizes the identifiers itself, existing quotes would end
	// up doubled.
	for i, c := range columnNames {
		columnNames[i] = removeQuotes(c)
	}

	n, err := t.Tx.CopyFrom(ctx, identifier, columnNames, pgx.CopyFromRows(srcRows))
	return n, MapError(err)
}
