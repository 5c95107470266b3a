// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/xataio/csv2chain/internal/backoff"
	"github.com/xataio/csv2chain/pkg/chain/ethereum"
	"github.com/xataio/csv2chain/pkg/contract/artifact"
	"github.com/xataio/csv2chain/pkg/kafka"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/otel"
	"github.com/xataio/csv2chain/pkg/outputlog/batch"
	kafkasink "github.com/xataio/csv2chain/pkg/outputlog/kafka"
	pgsink "github.com/xataio/csv2chain/pkg/outputlog/postgres"
	"github.com/xataio/csv2chain/pkg/tls"
	"github.com/xataio/csv2chain/pkg/workspace/server"
)

// EnvConfig holds the CSV2CHAIN_ prefixed settings. Durations use the Go
// duration format (5s, 250ms) and lists are comma separated.
type EnvConfig struct {
	RPCURL              string        `mapstructure:"CSV2CHAIN_CHAIN_RPC_URL"`
	NetworkID           string        `mapstructure:"CSV2CHAIN_CHAIN_NETWORK_ID"`
	From                string        `mapstructure:"CSV2CHAIN_CHAIN_FROM"`
	GasLimit            uint64        `mapstructure:"CSV2CHAIN_CHAIN_GAS_LIMIT"`
	ReceiptPollInterval time.Duration `mapstructure:"CSV2CHAIN_CHAIN_RECEIPT_POLL_INTERVAL"`
	ReceiptTimeout      time.Duration `mapstructure:"CSV2CHAIN_CHAIN_RECEIPT_TIMEOUT"`
	ChainTLSEnabled     bool          `mapstructure:"CSV2CHAIN_CHAIN_TLS_ENABLED"`
	ChainTLSCACert      string        `mapstructure:"CSV2CHAIN_CHAIN_TLS_CA_CERT"`
	ChainTLSClientCert  string        `mapstructure:"CSV2CHAIN_CHAIN_TLS_CLIENT_CERT"`
	ChainTLSClientKey   string        `mapstructure:"CSV2CHAIN_CHAIN_TLS_CLIENT_KEY"`

	Manifest  string `mapstructure:"CSV2CHAIN_CONTRACTS_MANIFEST"`
	Delimiter string `mapstructure:"CSV2CHAIN_TABLE_DELIMITER"`

	ExecutorMode        string `mapstructure:"CSV2CHAIN_EXECUTOR_MODE"`
	ExecutorMaxInFlight int    `mapstructure:"CSV2CHAIN_EXECUTOR_MAX_IN_FLIGHT"`

	PostgresURL               string        `mapstructure:"CSV2CHAIN_OUTPUT_POSTGRES_URL"`
	PostgresBatchTimeout      time.Duration `mapstructure:"CSV2CHAIN_OUTPUT_POSTGRES_BATCH_TIMEOUT"`
	PostgresBatchSize         int64         `mapstructure:"CSV2CHAIN_OUTPUT_POSTGRES_BATCH_SIZE"`
	PostgresBackoffMaxRetries uint          `mapstructure:"CSV2CHAIN_OUTPUT_POSTGRES_BACKOFF_MAX_RETRIES"`
	PostgresBackoffInitial    time.Duration `mapstructure:"CSV2CHAIN_OUTPUT_POSTGRES_BACKOFF_INITIAL_INTERVAL"`
	PostgresBackoffMax        time.Duration `mapstructure:"CSV2CHAIN_OUTPUT_POSTGRES_BACKOFF_MAX_INTERVAL"`

	KafkaServers           []string      `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_SERVERS"`
	KafkaTopicName         string        `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_TOPIC_NAME"`
	KafkaTopicPartitions   int           `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_TOPIC_PARTITIONS"`
	KafkaTopicReplication  int           `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_TOPIC_REPLICATION_FACTOR"`
	KafkaTopicAutoCreate   bool          `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_TOPIC_AUTO_CREATE"`
	KafkaTLSEnabled        bool          `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_TLS_ENABLED"`
	KafkaTLSCACert         string        `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_TLS_CA_CERT"`
	KafkaTLSClientCert     string        `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_TLS_CLIENT_CERT"`
	KafkaTLSClientKey      string        `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_TLS_CLIENT_KEY"`
	KafkaBatchTimeout      time.Duration `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_BATCH_TIMEOUT"`
	KafkaBatchSize         int64         `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_BATCH_SIZE"`
	KafkaBatchBytes        int64         `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_BATCH_BYTES"`
	KafkaBatchMaxQueueSize int64         `mapstructure:"CSV2CHAIN_OUTPUT_KAFKA_MAX_QUEUE_BYTES"`

	ServerAddress       string        `mapstructure:"CSV2CHAIN_SERVER_ADDRESS"`
	ServerReadTimeout   time.Duration `mapstructure:"CSV2CHAIN_SERVER_READ_TIMEOUT"`
	ServerWriteTimeout  time.Duration `mapstructure:"CSV2CHAIN_SERVER_WRITE_TIMEOUT"`
	ServerMaxTableBytes int64         `mapstructure:"CSV2CHAIN_SERVER_MAX_TABLE_BYTES"`

	MetricsEndpoint           string        `mapstructure:"CSV2CHAIN_METRICS_ENDPOINT"`
	MetricsCollectionInterval time.Duration `mapstructure:"CSV2CHAIN_METRICS_COLLECTION_INTERVAL"`
	TracesEndpoint            string        `mapstructure:"CSV2CHAIN_TRACES_ENDPOINT"`
	TracesSampleRatio         float64       `mapstructure:"CSV2CHAIN_TRACES_SAMPLE_RATIO"`
}

// decodeEnvConfig collects the keys known to viper, from the environment or
// an env file, and decodes them into an EnvConfig.
func decodeEnvConfig(v *viper.Viper) (*EnvConfig, error) {
	input := map[string]any{}
	t := reflect.TypeOf(EnvConfig{})
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("mapstructure")
		if v.IsSet(key) {
			input[key] = v.Get(key)
		}
	}

	cfg := &EnvConfig{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(input); err != nil {
		return nil, fmt.Errorf("decoding env config: %w", err)
	}
	return cfg, nil
}

func (c *EnvConfig) toConfig() (*Config, error) {
	mode, err := parseExecutorMode(c.ExecutorMode)
	if err != nil {
		return nil, err
	}
	delimiter, err := parseDelimiter(c.Delimiter)
	if err != nil {
		return nil, err
	}

	return &Config{
		Chain: ethereum.Config{
			URL: c.RPCURL,
			TLS: tls.Config{
				Enabled:        c.ChainTLSEnabled,
				CaCertFile:     c.ChainTLSCACert,
				ClientCertFile: c.ChainTLSClientCert,
				ClientKeyFile:  c.ChainTLSClientKey,
			},
			ReceiptPollInterval: c.ReceiptPollInterval,
			ReceiptTimeout:      c.ReceiptTimeout,
			GasLimit:            c.GasLimit,
		},
		Contracts: artifact.Config{
			ManifestPath: c.Manifest,
			NetworkID:    c.NetworkID,
		},
		From:      c.From,
		Delimiter: delimiter,
		Executor: migration.ExecutorConfig{
			Mode:        mode,
			MaxInFlight: c.ExecutorMaxInFlight,
		},
		Output: OutputConfig{
			Postgres: c.postgresSinkConfig(),
			Kafka:    c.kafkaSinkConfig(),
		},
		Server: server.Config{
			Address:       c.ServerAddress,
			ReadTimeout:   c.ServerReadTimeout,
			WriteTimeout:  c.ServerWriteTimeout,
			MaxTableBytes: c.ServerMaxTableBytes,
		},
	}, nil
}

func (c *EnvConfig) postgresSinkConfig() *pgsink.Config {
	if c.PostgresURL == "" {
		return nil
	}
	cfg := &pgsink.Config{
		URL: c.PostgresURL,
		Batch: batch.Config{
			BatchTimeout: c.PostgresBatchTimeout,
			MaxBatchSize: c.PostgresBatchSize,
		},
	}
	if c.PostgresBackoffMaxRetries > 0 || c.PostgresBackoffInitial > 0 || c.PostgresBackoffMax > 0 {
		cfg.Retry = &backoff.Config{
			Exponential: &backoff.ExponentialConfig{
				MaxRetries:      c.PostgresBackoffMaxRetries,
				InitialInterval: c.PostgresBackoffInitial,
				MaxInterval:     c.PostgresBackoffMax,
			},
		}
	}
	return cfg
}

func (c *EnvConfig) kafkaSinkConfig() *kafkasink.Config {
	if len(c.KafkaServers) == 0 {
		return nil
	}
	return &kafkasink.Config{
		Kafka: kafka.ConnConfig{
			Servers: c.KafkaServers,
			Topic: kafka.TopicConfig{
				Name:              c.KafkaTopicName,
				NumPartitions:     c.KafkaTopicPartitions,
				ReplicationFactor: c.KafkaTopicReplication,
				AutoCreate:        c.KafkaTopicAutoCreate,
			},
			TLS: tls.Config{
				Enabled:        c.KafkaTLSEnabled,
				CaCertFile:     c.KafkaTLSCACert,
				ClientCertFile: c.KafkaTLSClientCert,
				ClientKeyFile:  c.KafkaTLSClientKey,
			},
		},
		Batch: batch.Config{
			BatchTimeout:  c.KafkaBatchTimeout,
			MaxBatchSize:  c.KafkaBatchSize,
			MaxBatchBytes: c.KafkaBatchBytes,
			MaxQueueBytes: c.KafkaBatchMaxQueueSize,
		},
	}
}

func (c *EnvConfig) toOtelConfig() (*otel.Config, error) {
	cfg := &otel.Config{}
	if c.MetricsEndpoint != "" {
		cfg.Metrics = &otel.MetricsConfig{
			Endpoint:           c.MetricsEndpoint,
			CollectionInterval: c.MetricsCollectionInterval,
		}
	}
	if c.TracesEndpoint != "" {
		if err := validateSampleRatio(c.TracesSampleRatio); err != nil {
			return nil, err
		}
		cfg.Traces = &otel.TracesConfig{
			Endpoint:    c.TracesEndpoint,
			SampleRatio: c.TracesSampleRatio,
		}
	}
	return cfg, nil
}
