// SPDX-License-Identifier: Apache-2.0

package migrator

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestMigrationsURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		pgURL string
		want  string
	}{
		{
			name:  "no query params",
			pgURL: "postgres://u:p@localhost:5432/db",
			want:  "postgres://u:p@localhost:5432/db?x-migrations-table=%22csv2chain%22.%22t%22&x-migrations-table-quoted=1",
		},
		{
			name:  "with query params",
			pgURL: "postgres://u:p@localhost:5432/db?sslmode=disable",
			want:  "postgres://u:p@localhost:5432/db?sslmode=disable&x-migrations-table=%22csv2chain%22.%22t%22&x-migrations-table-quoted=1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, migrationsURL(tc.pgURL, "t"))
		})
	}
}

func TestMigrationAssets_migrationCount(t *testing.T) {
	t.Parallel()

	count, err := GetOutputLogMigrationAssets().migrationCount()
	require.NoError(t, err)
	require.Equal(t, uint(1), count)

	nested := &MigrationAssets{
		FS: fstest.MapFS{
			"sql/1_a.up.sql":   {Data: []byte("SELECT 1")},
			"sql/1_a.down.sql": {Data: []byte("SELECT 1")},
			"sql/2_b.up.sql":   {Data: []byte("SELECT 1")},
			"sql/2_b.down.sql": {Data: []byte("SELECT 1")},
		},
		Path: "sql",
	}
	count, err = nested.migrationCount()
	require.NoError(t, err)
	require.Equal(t, uint(2), count)
}

func TestNewPGMigrator_NoAssets(t *testing.T) {
	t.Parallel()

	_, err := NewPGMigrator("postgres://localhost/db", nil)
	require.ErrorIs(t, err, ErrNoAssetsProvided)
}
