// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	errTest := errors.New("some error")

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{
			name:    "nil",
			err:     nil,
			wantErr: nil,
		},
		{
			name:    "generic error",
			err:     errTest,
			wantErr: errTest,
		},
		{
			name:    "no rows",
			err:     fmt.Errorf("scanning: %w", pgx.ErrNoRows),
			wantErr: ErrNoRows,
		},
		{
			name:    "42P01 undefined_table",
			err:     &pgconn.PgError{Code: pgerrcode.UndefinedTable, Message: `relation "output_log" does not exist`},
			wantErr: &ErrRelationDoesNotExist{Details: `relation "output_log" does not exist`},
		},
		{
			name:    "3F000 invalid_schema_name",
			err:     &pgconn.PgError{Code: pgerrcode.InvalidSchemaName, Message: `schema "csv2chain" does not exist`},
			wantErr: &ErrRelationDoesNotExist{Details: `schema "csv2chain" does not exist`},
		},
		{
			name:    "42501 insufficient_privilege",
			err:     &pgconn.PgError{Code: pgerrcode.InsufficientPrivilege, Message: "permission denied for schema csv2chain"},
			wantErr: &ErrPermissionDenied{Details: "permission denied for schema csv2chain"},
		},
		{
			name:    "23505 unique_violation",
			err:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, Message: "duplicate key value"},
			wantErr: &ErrConstraintViolation{Details: "duplicate key value"},
		},
		{
			name:    "42601 syntax_error",
			err:     &pgconn.PgError{Code: pgerrcode.SyntaxError, Message: "syntax error"},
			wantErr: &pgconn.PgError{Code: pgerrcode.SyntaxError, Message: "syntax error"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.wantErr, MapError(tc.err))
		})
	}
}

func TestIsDuplicateObject(t *testing.T) {
	t.Parallel()

	require.True(t, IsDuplicateObject(&pgconn.PgError{Code: pgerrcode.DuplicateSchema}))
	require.True(t, IsDuplicateObject(fmt.Errorf("creating: %w", &pgconn.PgError{Code: pgerrcode.DuplicateObject})))
	require.False(t, IsDuplicateObject(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	require.False(t, IsDuplicateObject(errors.New("oh noes")))
}
