// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrConnTimeout = errors.New("connection timeout")
	ErrNoRows      = errors.New("no rows")
)

type ErrRelationDoesNotExist struct {
	Details string
}

func (e *ErrRelationDoesNotExist) Error() string {
	return fmt.Sprintf("relation does not exist: %s", e.Details)
}

type ErrConstraintViolation struct {
	Details string
}

func (e *ErrConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation: %s", e.Details)
}

type ErrPermissionDenied struct {
	Details string
}

func (e *ErrPermissionDenied) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Details)
}

func MapError(err error) error {
	if err == nil {
		return nil
	}

	if pgconn.Timeout(err) {
		return ErrConnTimeout
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UndefinedTable,
			pgErr.Code == pgerrcode.UndefinedColumn,
			pgErr.Code == pgerrcode.InvalidSchemaName:
			return &ErrRelationDoesNotExist{
				Details: pgErr.Message,
			}
		case pgErr.Code == pgerrcode.InsufficientPrivilege:
			return &ErrPermissionDenied{
				Details: pgErr.Message,
			}
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return &ErrConstraintViolation{
				Details: pgErr.Message,
			}
		}
	}

	return err
}

// IsDuplicateObject reports whether the error is a postgres duplicate object
// error (e.g. a schema or table that already exists).
func IsDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.DuplicateObject || pgErr.Code == pgerrcode.DuplicateSchema ||
		pgErr.Code == pgerrcode.DuplicateTable
}

