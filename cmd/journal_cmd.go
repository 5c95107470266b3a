// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/rs/xid"
	"github.com/spf13/viper"

	"github.com/xataio/csv2chain/cmd/config"
	kafkalib "github.com/xataio/csv2chain/pkg/kafka"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/outputlog"
	kafkasink "github.com/xataio/csv2chain/pkg/outputlog/kafka"
	pgsink "github.com/xataio/csv2chain/pkg/outputlog/postgres"
)

var journalCmd = &cobra.Command{
	Use:    "journal",
	Short:  "Prints the output log lines of a migration run stored in the postgres journal or the kafka topic",
	PreRun: journalFlagBinding,
	RunE:   withSignalWatcher(listJournal),
	Example: `
	csv2chain journal --postgres-url <postgres-url> --run cq1m3vbrk3bc73c1k7tg
	csv2chain journal -c config.yaml --run cq1m3vbrk3bc73c1k7tg
	csv2chain journal -c config.yaml --kafka --run cq1m3vbrk3bc73c1k7tg`,
}

var errNoKafkaServers = errors.New("kafka output servers are required")

func listJournal(ctx context.Context) error {
	logger := newLogger()

	cfg, err := parseConfig()
	if err != nil {
		return err
	}

	runID := viper.GetString("run")
	var msgs []outputlog.Message
	if viper.GetBool("kafka") {
		msgs, err = readKafkaJournal(ctx, cfg, runID, logger)
	} else {
		msgs, err = readPostgresJournal(ctx, cfg, runID, logger)
	}
	if err != nil {
		return fmt.Errorf("listing journal: %w", err)
	}

	printLines(os.Stdout, msgs)
	return nil
}

func readPostgresJournal(ctx context.Context, cfg *config.Config, runID string, logger loglib.Logger) ([]outputlog.Message, error) {
	if cfg.Output.Postgres == nil || cfg.Output.Postgres.URL == "" {
		return nil, errNoPostgresURL
	}

	store, err := pgsink.NewStore(ctx, cfg.Output.Postgres, pgsink.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.ListRun(ctx, runID)
}

func readKafkaJournal(ctx context.Context, cfg *config.Config, runID string, logger loglib.Logger) ([]outputlog.Message, error) {
	if cfg.Output.Kafka == nil || len(cfg.Output.Kafka.Kafka.Servers) == 0 {
		return nil, errNoKafkaServers
	}

	reader, err := kafkalib.NewReader(kafkalib.ReaderConfig{
		Conn:            cfg.Output.Kafka.Kafka,
		ConsumerGroupID: "csv2chain-journal-" + xid.New().String(),
	}, logger)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return kafkasink.ReadRun(ctx, reader, runID, viper.GetDuration("idle-timeout"))
}

func journalFlagBinding(cmd *cobra.Command, args []string) {
	viper.BindPFlag("run", cmd.Flags().Lookup("run"))
	viper.BindPFlag("kafka", cmd.Flags().Lookup("kafka"))
	viper.BindPFlag("idle-timeout", cmd.Flags().Lookup("idle-timeout"))
	chainFlagBinding(cmd, args)
}
