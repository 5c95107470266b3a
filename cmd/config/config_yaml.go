// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/xataio/csv2chain/internal/backoff"
	"github.com/xataio/csv2chain/pkg/chain/ethereum"
	"github.com/xataio/csv2chain/pkg/contract/artifact"
	"github.com/xataio/csv2chain/pkg/kafka"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/otel"
	kafkasink "github.com/xataio/csv2chain/pkg/outputlog/kafka"
	"github.com/xataio/csv2chain/pkg/outputlog/batch"
	pgsink "github.com/xataio/csv2chain/pkg/outputlog/postgres"
	"github.com/xataio/csv2chain/pkg/tls"
	"github.com/xataio/csv2chain/pkg/workspace/server"
)

type YAMLConfig struct {
	Chain           ChainConfig           `mapstructure:"chain" yaml:"chain"`
	Contracts       ContractsConfig       `mapstructure:"contracts" yaml:"contracts"`
	Table           TableConfig           `mapstructure:"table" yaml:"table"`
	Executor        ExecutorConfig        `mapstructure:"executor" yaml:"executor"`
	Output          OutputSinksConfig     `mapstructure:"output" yaml:"output"`
	Server          ServerConfig          `mapstructure:"server" yaml:"server"`
	Instrumentation InstrumentationConfig `mapstructure:"instrumentation" yaml:"instrumentation"`
}

type ChainConfig struct {
	RPCURL    string         `mapstructure:"rpc_url" yaml:"rpc_url"`
	NetworkID string         `mapstructure:"network_id" yaml:"network_id"`
	From      string         `mapstructure:"from" yaml:"from"`
	GasLimit  uint64         `mapstructure:"gas_limit" yaml:"gas_limit"`
	Receipt   *ReceiptConfig `mapstructure:"receipt" yaml:"receipt"`
	TLS       *TLSConfig     `mapstructure:"tls" yaml:"tls"`
}

type ReceiptConfig struct {
	// milliseconds
	PollInterval int `mapstructure:"poll_interval" yaml:"poll_interval"`
	Timeout      int `mapstructure:"timeout" yaml:"timeout"`
}

type ContractsConfig struct {
	Manifest string `mapstructure:"manifest" yaml:"manifest"`
}

type TableConfig struct {
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

type ExecutorConfig struct {
	Mode        string `mapstructure:"mode" yaml:"mode"`
	MaxInFlight int    `mapstructure:"max_in_flight" yaml:"max_in_flight"`
}

type OutputSinksConfig struct {
	Postgres *PostgresOutputConfig `mapstructure:"postgres" yaml:"postgres"`
	Kafka    *KafkaOutputConfig    `mapstructure:"kafka" yaml:"kafka"`
}

type PostgresOutputConfig struct {
	URL     string         `mapstructure:"url" yaml:"url"`
	Batch   *BatchConfig   `mapstructure:"batch" yaml:"batch"`
	Backoff *BackoffConfig `mapstructure:"backoff" yaml:"backoff"`
}

type KafkaOutputConfig struct {
	Servers []string     `mapstructure:"servers" yaml:"servers"`
	Topic   TopicConfig  `mapstructure:"topic" yaml:"topic"`
	TLS     *TLSConfig   `mapstructure:"tls" yaml:"tls"`
	Batch   *BatchConfig `mapstructure:"batch" yaml:"batch"`
}

type TopicConfig struct {
	Name              string `mapstructure:"name" yaml:"name"`
	Partitions        int    `mapstructure:"partitions" yaml:"partitions"`
	ReplicationFactor int    `mapstructure:"replication_factor" yaml:"replication_factor"`
	AutoCreate        bool   `mapstructure:"auto_create" yaml:"auto_create"`
}

type TLSConfig struct {
	Enabled            bool   `mapstructure:"enabled" yaml:"enabled"`
	CACert             string `mapstructure:"ca_cert" yaml:"ca_cert"`
	ClientCert         string `mapstructure:"client_cert" yaml:"client_cert"`
	ClientKey          string `mapstructure:"client_key" yaml:"client_key"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

type BatchConfig struct {
	// milliseconds
	Timeout       int   `mapstructure:"timeout" yaml:"timeout"`
	Size          int64 `mapstructure:"size" yaml:"size"`
	MaxBytes      int64 `mapstructure:"max_bytes" yaml:"max_bytes"`
	MaxQueueBytes int64 `mapstructure:"max_queue_bytes" yaml:"max_queue_bytes"`
}

type BackoffConfig struct {
	Exponential *ExponentialBackoffConfig `mapstructure:"exponential" yaml:"exponential"`
	Constant    *ConstantBackoffConfig    `mapstructure:"constant" yaml:"constant"`
}

type ExponentialBackoffConfig struct {
	MaxRetries      int `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval int `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     int `mapstructure:"max_interval" yaml:"max_interval"`
}

type ConstantBackoffConfig struct {
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	Interval   int `mapstructure:"interval" yaml:"interval"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
	// milliseconds
	ReadTimeout   int   `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout  int   `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxTableBytes int64 `mapstructure:"max_table_bytes" yaml:"max_table_bytes"`
}

type InstrumentationConfig struct {
	Metrics *MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Traces  *TracesConfig  `mapstructure:"traces" yaml:"traces"`
}

type MetricsConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// seconds
	CollectionInterval int `mapstructure:"collection_interval" yaml:"collection_interval"`
}

type TracesConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
}

func (c *YAMLConfig) toConfig() (*Config, error) {
	mode, err := parseExecutorMode(c.Executor.Mode)
	if err != nil {
		return nil, err
	}
	delimiter, err := parseDelimiter(c.Table.Delimiter)
	if err != nil {
		return nil, err
	}

	return &Config{
		Chain: c.Chain.toEthereumConfig(),
		Contracts: artifact.Config{
			ManifestPath: c.Contracts.Manifest,
			NetworkID:    c.Chain.NetworkID,
		},
		From:      c.Chain.From,
		Delimiter: delimiter,
		Executor: migration.ExecutorConfig{
			Mode:        mode,
			MaxInFlight: c.Executor.MaxInFlight,
		},
		Output: OutputConfig{
			Postgres: c.Output.Postgres.toSinkConfig(),
			Kafka:    c.Output.Kafka.toSinkConfig(),
		},
		Server: server.Config{
			Address:       c.Server.Address,
			ReadTimeout:   time.Duration(c.Server.ReadTimeout) * time.Millisecond,
			WriteTimeout:  time.Duration(c.Server.WriteTimeout) * time.Millisecond,
			MaxTableBytes: c.Server.MaxTableBytes,
		},
	}, nil
}

func (c *ChainConfig) toEthereumConfig() ethereum.Config {
	cfg := ethereum.Config{
		URL:      c.RPCURL,
		TLS:      c.TLS.toTLSConfig(),
		GasLimit: c.GasLimit,
	}
	if c.Receipt != nil {
		cfg.ReceiptPollInterval = time.Duration(c.Receipt.PollInterval) * time.Millisecond
		cfg.ReceiptTimeout = time.Duration(c.Receipt.Timeout) * time.Millisecond
	}
	return cfg
}

func (c *PostgresOutputConfig) toSinkConfig() *pgsink.Config {
	if c == nil || c.URL == "" {
		return nil
	}
	return &pgsink.Config{
		URL:   c.URL,
		Batch: c.Batch.toBatchConfig(),
		Retry: c.Backoff.toBackoffConfig(),
	}
}

func (c *KafkaOutputConfig) toSinkConfig() *kafkasink.Config {
	if c == nil || len(c.Servers) == 0 {
		return nil
	}
	return &kafkasink.Config{
		Kafka: kafka.ConnConfig{
			Servers: c.Servers,
			Topic: kafka.TopicConfig{
				Name:              c.Topic.Name,
				NumPartitions:     c.Topic.Partitions,
				ReplicationFactor: c.Topic.ReplicationFactor,
				AutoCreate:        c.Topic.AutoCreate,
			},
			TLS: c.TLS.toTLSConfig(),
		},
		Batch: c.Batch.toBatchConfig(),
	}
}

func (c *TLSConfig) toTLSConfig() tls.Config {
	if c == nil {
		return tls.Config{}
	}
	return tls.Config{
		Enabled:            c.Enabled,
		CaCertFile:         c.CACert,
		ClientCertFile:     c.ClientCert,
		ClientKeyFile:      c.ClientKey,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

func (c *BatchConfig) toBatchConfig() batch.Config {
	if c == nil {
		return batch.Config{}
	}
	return batch.Config{
		BatchTimeout:  time.Duration(c.Timeout) * time.Millisecond,
		MaxBatchSize:  c.Size,
		MaxBatchBytes: c.MaxBytes,
		MaxQueueBytes: c.MaxQueueBytes,
	}
}

func (c *BackoffConfig) toBackoffConfig() *backoff.Config {
	if c == nil {
		return nil
	}
	cfg := &backoff.Config{}
	if c.Exponential != nil {
		cfg.Exponential = &backoff.ExponentialConfig{
			MaxRetries:      uint(c.Exponential.MaxRetries),
			InitialInterval: time.Duration(c.Exponential.InitialInterval) * time.Millisecond,
			MaxInterval:     time.Duration(c.Exponential.MaxInterval) * time.Millisecond,
		}
	}
	if c.Constant != nil {
		cfg.Constant = &backoff.ConstantConfig{
			MaxRetries: uint(c.Constant.MaxRetries),
			Interval:   time.Duration(c.Constant.Interval) * time.Millisecond,
		}
	}
	return cfg
}

func (c *InstrumentationConfig) toOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}
	if c.Metrics != nil {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           c.Metrics.Endpoint,
			CollectionInterval: time.Duration(c.Metrics.CollectionInterval) * time.Second,
		}
	}
	if c.Traces != nil {
		if err := validateSampleRatio(c.Traces.SampleRatio); err != nil {
			return nil, err
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    c.Traces.Endpoint,
			SampleRatio: c.Traces.SampleRatio,
		}
	}
	return cfg, nil
}
