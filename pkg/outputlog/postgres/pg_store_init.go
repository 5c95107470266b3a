// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"fmt"

	"github.com/xataio/csv2chain/internal/migrator"
	pglib "github.com/xataio/csv2chain/internal/postgres"
)

// Init creates the csv2chain schema and applies the output log migrations.
func Init(ctx context.Context, url string) error {
	if err := execOnce(ctx, url, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pglib.QuoteIdentifier(migrator.Schema))); err != nil {
		return fmt.Errorf("creating %s schema: %w", migrator.Schema, err)
	}

	m, err := migrator.NewPGMigrator(url, []*migrator.MigrationAssets{migrator.GetOutputLogMigrationAssets()})
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		return fmt.Errorf("applying output log migrations: %w", err)
	}
	return nil
}

// Destroy reverts the output log migrations and drops the csv2chain schema.
func Destroy(ctx context.Context, url string) error {
	m, err := migrator.NewPGMigrator(url, []*migrator.MigrationAssets{migrator.GetOutputLogMigrationAssets()})
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Down(); err != nil {
		return fmt.Errorf("reverting output log migrations: %w", err)
	}

	return execOnce(ctx, url, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", pglib.QuoteIdentifier(migrator.Schema)))
}

func execOnce(ctx context.Context, url, query string) error {
	conn, err := pglib.NewConnPool(ctx, url)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, query); err != nil && !pglib.IsDuplicateObject(err) {
		return err
	}
	return nil
}
