// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xataio/csv2chain/pkg/migration"
)

func TestYAMLConfig(t *testing.T) {
	t.Parallel()

	v := loadTestViper(t, "test/test_config.yaml")

	cfg, err := parseConfig(v)
	require.NoError(t, err)
	validateTestConfig(t, cfg)
	require.NoError(t, cfg.Validate())

	otelCfg, err := parseInstrumentationConfig(v)
	require.NoError(t, err)
	validateTestOtelConfig(t, otelCfg)
}

func TestYAMLConfig_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string

		wantErr     error
		wantOtelErr error
	}{
		{
			name:    "unsupported executor mode",
			content: "executor:\n  mode: parallel\n",
			wantErr: errUnsupportedExecutorMode,
		},
		{
			name:    "invalid delimiter",
			content: "table:\n  delimiter: \"::\"\n",
			wantErr: errInvalidDelimiter,
		},
		{
			name:        "invalid sample ratio",
			content:     "instrumentation:\n  traces:\n    endpoint: localhost:4317\n    sample_ratio: 2\n",
			wantOtelErr: errInvalidSampleRatio,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			file := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(file, []byte(tc.content), 0o600))
			v := loadTestViper(t, file)

			_, err := parseConfig(v)
			require.ErrorIs(t, err, tc.wantErr)

			_, err = parseInstrumentationConfig(v)
			require.ErrorIs(t, err, tc.wantOtelErr)
		})
	}
}

func TestYAMLConfig_defaults(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(file, []byte("chain:\n  rpc_url: http://localhost:8545\n"), 0o600))
	v := loadTestViper(t, file)

	cfg, err := parseConfig(v)
	require.NoError(t, err)
	require.Equal(t, migration.SerialMode, cfg.Executor.Mode)
	require.Equal(t, rune(0), cfg.Delimiter)
	require.Nil(t, cfg.Output.Postgres)
	require.Nil(t, cfg.Output.Kafka)
	require.ErrorIs(t, cfg.Validate(), errMissingManifest)
}
