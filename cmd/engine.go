// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"
	"github.com/xataio/csv2chain/cmd/config"
	"github.com/xataio/csv2chain/internal/log/zerolog"
	"github.com/xataio/csv2chain/pkg/chain"
	"github.com/xataio/csv2chain/pkg/chain/ethereum"
	"github.com/xataio/csv2chain/pkg/chain/instrumentation"
	"github.com/xataio/csv2chain/pkg/contract/artifact"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/otel"
	"github.com/xataio/csv2chain/pkg/outputlog"
	kafkasink "github.com/xataio/csv2chain/pkg/outputlog/kafka"
	pgsink "github.com/xataio/csv2chain/pkg/outputlog/postgres"
	"github.com/xataio/csv2chain/pkg/table"
	"github.com/xataio/csv2chain/pkg/workspace"
)

// engine wires the configured chain client, contract provider, output log
// sinks and executor into a workspace session.
type engine struct {
	logger   loglib.Logger
	config   *config.Config
	session  *workspace.Session
	executor *migration.Executor
	log      *outputlog.Log
	closers  []func() error
}

func newLogger() loglib.Logger {
	logger := zerolog.NewLogger(&zerolog.Config{
		LogLevel: viper.GetString(logLevelKey),
		JSON:     viper.GetBool("CSV2CHAIN_LOG_JSON"),
	})
	zerolog.SetGlobalLogger(logger)
	return zerolog.NewStdLogger(logger)
}

func parseConfig() (*config.Config, error) {
	cfg, err := config.ParseConfig()
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// newContractProvider only needs the contracts manifest, commands that don't
// reach the chain use it on its own.
func newContractProvider(cfg *config.Config, logger loglib.Logger) (*artifact.Provider, error) {
	provider, err := artifact.NewProvider(&cfg.Contracts, artifact.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating contract provider: %w", err)
	}
	return provider, nil
}

func newEngine(ctx context.Context, logger loglib.Logger, cfg *config.Config, instrumentationProvider otel.InstrumentationProvider) (_ *engine, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &engine{
		logger: logger,
		config: cfg,
	}
	defer func() {
		if err != nil {
			e.close()
		}
	}()

	provider, err := newContractProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := e.newChainClient(ctx, instrumentationProvider)
	if err != nil {
		return nil, err
	}

	sinks, err := e.newSinks(ctx, instrumentationProvider)
	if err != nil {
		return nil, err
	}

	e.log = outputlog.New(outputlog.WithSinks(sinks...), outputlog.WithLogger(logger))
	e.executor = migration.NewExecutor(client, e.log,
		migration.WithLogger(logger),
		migration.WithExecutorConfig(cfg.Executor))
	// the executor drains its calls before the sinks are flushed
	e.closers = append([]func() error{e.executor.Close}, e.closers...)

	sessionOpts := []workspace.Option{workspace.WithLogger(logger)}
	if cfg.Delimiter != 0 {
		sessionOpts = append(sessionOpts, workspace.WithTableOptions(table.WithDelimiter(cfg.Delimiter)))
	}
	e.session = workspace.NewSession(provider, e.log, e.executor, sessionOpts...)

	return e, nil
}

func (e *engine) newChainClient(ctx context.Context, instrumentationProvider otel.InstrumentationProvider) (chain.Client, error) {
	ethClient, err := ethereum.NewClient(ctx, &e.config.Chain, ethereum.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("creating chain client: %w", err)
	}
	e.closers = append(e.closers, func() error {
		ethClient.Close()
		return nil
	})

	return instrumentation.NewClient(ethClient, instrumentationProvider.NewInstrumentation("chain"))
}

func (e *engine) newSinks(ctx context.Context, instrumentationProvider otel.InstrumentationProvider) ([]outputlog.Sink, error) {
	sinks := []outputlog.Sink{}
	if pgCfg := e.config.Output.Postgres; pgCfg != nil {
		store, err := pgsink.NewStore(ctx, pgCfg, pgsink.WithLogger(e.logger))
		if err != nil {
			return nil, fmt.Errorf("creating postgres output sink: %w", err)
		}
		e.closers = append(e.closers, store.Close)
		sinks = append(sinks, store)
	}

	if kafkaCfg := e.config.Output.Kafka; kafkaCfg != nil {
		sink, err := kafkasink.NewSink(ctx, kafkaCfg,
			kafkasink.WithLogger(e.logger),
			kafkasink.WithInstrumentation(instrumentationProvider.NewInstrumentation("output_log_kafka")))
		if err != nil {
			return nil, fmt.Errorf("creating kafka output sink: %w", err)
		}
		e.closers = append(e.closers, sink.Close)
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

// close stops the executor and flushes the output log sinks.
func (e *engine) close() error {
	var errs error
	for _, closeFn := range e.closers {
		errs = errors.Join(errs, closeFn())
	}
	return errs
}

func printLines(w io.Writer, msgs []outputlog.Message) {
	for _, msg := range msgs {
		fmt.Fprintln(w, msg.String())
	}
}
