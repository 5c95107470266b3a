// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/xataio/csv2chain/pkg/chain/ethereum"
	"github.com/xataio/csv2chain/pkg/contract/artifact"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/otel"
	kafkasink "github.com/xataio/csv2chain/pkg/outputlog/kafka"
	pgsink "github.com/xataio/csv2chain/pkg/outputlog/postgres"
	"github.com/xataio/csv2chain/pkg/workspace/server"
)

// Config is the csv2chain configuration, parsed from either a YAML or an env
// file (and the environment).
type Config struct {
	Chain     ethereum.Config
	Contracts artifact.Config
	// From is the explicit signing account. When empty, the first account of
	// the node is used.
	From string
	// Delimiter used to parse the tables. Defaults to comma.
	Delimiter rune
	Executor  migration.ExecutorConfig
	Output    OutputConfig
	Server    server.Config
}

type OutputConfig struct {
	Postgres *pgsink.Config
	Kafka    *kafkasink.Config
}

var (
	errUnsupportedExecutorMode = errors.New("unsupported executor mode")
	errInvalidSampleRatio      = errors.New("trace sample ratio must be between 0 and 1")
	errInvalidDelimiter        = errors.New("table delimiter must be a single character")
	errMissingRPCURL           = errors.New("chain rpc url is required")
	errMissingManifest         = errors.New("contracts manifest is required")
)

func Load() error {
	return LoadFile(viper.GetString("config"))
}

func LoadFile(file string) error {
	return loadFile(viper.GetViper(), file)
}

func loadFile(v *viper.Viper, file string) error {
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	v.SetConfigType(filepath.Ext(file)[1:])
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// ParseConfig returns the configuration from the loaded config file. Env
// files and plain environment variables use the CSV2CHAIN_ prefixed keys.
func ParseConfig() (*Config, error) {
	return parseConfig(viper.GetViper())
}

func ParseInstrumentationConfig() (*otel.Config, error) {
	return parseInstrumentationConfig(viper.GetViper())
}

func parseConfig(v *viper.Viper) (*Config, error) {
	if isYAML(v) {
		yamlCfg := YAMLConfig{}
		if err := v.Unmarshal(&yamlCfg); err != nil {
			return nil, err
		}
		return yamlCfg.toConfig()
	}

	envCfg, err := decodeEnvConfig(v)
	if err != nil {
		return nil, err
	}
	return envCfg.toConfig()
}

func parseInstrumentationConfig(v *viper.Viper) (*otel.Config, error) {
	if isYAML(v) {
		yamlCfg := YAMLConfig{}
		if err := v.Unmarshal(&yamlCfg); err != nil {
			return nil, err
		}
		return yamlCfg.Instrumentation.toOtelConfig()
	}

	envCfg, err := decodeEnvConfig(v)
	if err != nil {
		return nil, err
	}
	return envCfg.toOtelConfig()
}

func isYAML(v *viper.Viper) bool {
	switch filepath.Ext(v.ConfigFileUsed()) {
	case ".yml", ".yaml":
		return true
	default:
		return false
	}
}

// Validate checks the settings every chain command needs.
func (c *Config) Validate() error {
	if c.Chain.URL == "" {
		return errMissingRPCURL
	}
	if c.Contracts.ManifestPath == "" {
		return errMissingManifest
	}
	return nil
}

func parseExecutorMode(mode string) (migration.Mode, error) {
	m, err := migration.ParseMode(mode)
	if err != nil {
		return "", fmt.Errorf("%w: %s", errUnsupportedExecutorMode, mode)
	}
	return m, nil
}

func parseDelimiter(d string) (rune, error) {
	if d == "" {
		return 0, nil
	}
	runes := []rune(d)
	if len(runes) != 1 {
		return 0, fmt.Errorf("%w: %q", errInvalidDelimiter, d)
	}
	return runes[0], nil
}

func validateSampleRatio(ratio float64) error {
	if ratio < 0 || ratio > 1 {
		return errInvalidSampleRatio
	}
	return nil
}
