// SPDX-License-Identifier: Apache-2.0

package migrator

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pgmigrations "github.com/xataio/csv2chain/migrations/postgres"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

type Migrator struct {
	migrators []*migrate.Migrate
	assets    []*MigrationAssets
}

type MigrationAssets struct {
	FS        fs.FS
	Path      string
	TableName string
}

type MigrationStatus struct {
	TableName              string
	Version                uint
	Dirty                  bool
	ExpectedMigrationCount uint
}

const Schema = "csv2chain"

var (
	ErrNoChange         = errors.New("no change")
	ErrNoAssetsProvided = errors.New("no migration assets provided")
	ErrNoMigration      = errors.New("no migration found")
)

// NewPGMigrator creates a new Migrator instance for the provided Postgres URL
// and migration assets. Each asset gets its own migrator, tracking its
// version in a separate table under the csv2chain schema. They are applied
// in the order provided. The schema must exist.
func NewPGMigrator(pgURL string, migrationAssets []*MigrationAssets) (*Migrator, error) {
	if len(migrationAssets) == 0 {
		return nil, ErrNoAssetsProvided
	}

	migrators := make([]*migrate.Migrate, 0, len(migrationAssets))
	for _, assets := range migrationAssets {
		src, err := iofs.New(assets.FS, assets.Path)
		if err != nil {
			return nil, fmt.Errorf("loading migration assets: %w", err)
		}

		m, err := migrate.NewWithSourceInstance("iofs", src, migrationsURL(pgURL, assets.TableName))
		if err != nil {
			return nil, err
		}
		migrators = append(migrators, m)
	}

	return &Migrator{migrators: migrators, assets: migrationAssets}, nil
}

// migrationsURL sets the schema qualified migrations table on the url, so
// that the search path of the connection doesn't matter. The quotes are url
// encoded.
func migrationsURL(pgURL, tableName string) string {
	sep := "?"
	if strings.Contains(pgURL, "?") {
		sep = "&"
	}
	return pgURL + sep + `x-migrations-table=%22` + Schema + `%22.%22` + tableName + `%22&x-migrations-table-quoted=1`
}

// Up will apply all the migrations provided in the migration assets.
func (m *Migrator) Up() error {
	for _, migrator := range m.migrators {
		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return mapError(err)
		}
	}
	return nil
}

// Down will revert the migrations provided in the migration assets, in
// reverse order.
func (m *Migrator) Down() error {
	for i := len(m.migrators) - 1; i >= 0; i-- {
		if err := m.migrators[i].Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return mapError(err)
		}
	}
	return nil
}

func (m *Migrator) Close() {
	for _, migrator := range m.migrators {
		_, _ = migrator.Close()
	}
}

func (m *Migrator) Status() ([]MigrationStatus, error) {
	statuses := make([]MigrationStatus, 0, len(m.migrators))
	for i, migrator := range m.migrators {
		expected, err := m.assets[i].migrationCount()
		if err != nil {
			return nil, err
		}

		version, dirty, err := migrator.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return nil, fmt.Errorf("getting migration version: %w", mapError(err))
		}

		statuses = append(statuses, MigrationStatus{
			TableName:              m.assets[i].TableName,
			Version:                version,
			Dirty:                  dirty,
			ExpectedMigrationCount: expected,
		})
	}

	return statuses, nil
}

func (a *MigrationAssets) migrationCount() (uint, error) {
	ups, err := fs.Glob(a.FS, a.pattern("*.up.sql"))
	if err != nil {
		return 0, err
	}
	return uint(len(ups)), nil
}

func (a *MigrationAssets) pattern(p string) string {
	if a.Path == "" || a.Path == "." {
		return p
	}
	return a.Path + "/" + p
}

func GetOutputLogMigrationAssets() *MigrationAssets {
	return &MigrationAssets{
		FS:        pgmigrations.FS,
		Path:      ".",
		TableName: "schema_migrations_output_log",
	}
}

func mapError(err error) error {
	if errors.Is(err, migrate.ErrNilVersion) {
		return ErrNoMigration
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return ErrNoChange
	}
	return err
}
