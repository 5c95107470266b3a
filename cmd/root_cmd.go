// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/csv2chain/cmd/config"
	"github.com/xataio/csv2chain/internal/profiling"
	"github.com/xataio/csv2chain/pkg/otel"
)

// Version is the csv2chain version
var (
	Version = "development"
	Env     string
)

const logLevelKey = "CSV2CHAIN_LOG_LEVEL"

func Prepare() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "csv2chain",
		Short:        "Migrates delimited text tables into smart contract function calls",
		SilenceUsage: true,
		Version:      version(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			return nil
		},
	}

	// keys are read with their CSV2CHAIN_ prefix, no env prefix is set
	viper.AutomaticEnv()

	// Flag definition

	// root cmd
	rootCmd.PersistentFlags().StringP("config", "c", "", ".env or .yaml config file to use with csv2chain if any")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for the application. One of trace, debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().Bool("log-json", false, "Whether to emit the logs as json instead of the console format")

	// migrate cmd
	migrateCmd.Flags().StringP("plan", "p", "", "Path to the YAML migration plan")
	migrateCmd.Flags().String("rpc-url", "", "JSON-RPC endpoint of the chain node")
	migrateCmd.Flags().String("manifest", "", "Path to the contracts manifest")
	migrateCmd.Flags().String("from", "", "Account sending the transactions. Defaults to the first account of the node")
	migrateCmd.Flags().String("mode", "", "Dispatch mode. One of serial, concurrent")
	migrateCmd.Flags().Bool("profile", false, "Whether to produce CPU and memory profile files, as well as exposing a /debug/pprof endpoint on localhost:6060")

	// serve cmd
	serveCmd.Flags().String("address", "", "Address for the workspace server to listen on")
	serveCmd.Flags().String("rpc-url", "", "JSON-RPC endpoint of the chain node")
	serveCmd.Flags().String("manifest", "", "Path to the contracts manifest")
	serveCmd.Flags().String("table", "", "Path to a table to load on start up")
	serveCmd.Flags().Bool("profile", false, "Whether to expose a /debug/pprof endpoint on localhost:6060")

	// validate cmd
	validateCmd.Flags().StringP("plan", "p", "", "Path to the YAML migration plan to validate")
	validateCmd.Flags().String("manifest", "", "Path to the contracts manifest")
	validateCmd.Flags().Bool("json", false, "Output the validation issues in JSON format")

	// contracts cmd
	contractsCmd.Flags().String("manifest", "", "Path to the contracts manifest")
	contractsCmd.Flags().Bool("json", false, "Output the contracts in JSON format")

	// init/destroy cmd
	initCmd.Flags().String("postgres-url", "", "Postgres URL where the output log journal will be created")
	destroyCmd.Flags().String("postgres-url", "", "Postgres URL where the output log journal will be removed from")

	// journal cmd
	journalCmd.Flags().String("postgres-url", "", "Postgres URL of the output log journal")
	journalCmd.Flags().String("run", "", "Migration run id to list")
	journalCmd.MarkFlagRequired("run")
	journalCmd.Flags().Bool("kafka", false, "Read the run from the kafka output topic instead of the postgres journal")
	journalCmd.Flags().Duration("idle-timeout", 5*time.Second, "Stop reading the kafka topic once no message arrives for this long")

	// Flag binding for root cmd
	rootFlagBinding(rootCmd)

	// register subcommands
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(contractsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(journalCmd)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	cmd := Prepare()
	return cmd.Execute()
}

func withSignalWatcher(fn func(ctx context.Context) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(),
			syscall.SIGHUP,
			syscall.SIGINT,
			syscall.SIGTERM,
			syscall.SIGQUIT)
		defer cancel()
		return fn(ctx)
	}
}

func withProfiling(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) (err error) {
	return func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Lookup("profile").Value.String() == "false" {
			return fn(cmd, args)
		}

		profiling.StartProfilingServer("localhost:6060")
		// serve is a long running process, do not produce a cpu/mem files but
		// rather expose the http endpoint only.
		if cmd.Name() == "serve" {
			return fn(cmd, args)
		}

		stopCPUProfile, err := profiling.StartCPUProfile("cpu.prof")
		if err != nil {
			return err
		}
		defer func() {
			stopCPUProfile()
			profiling.CreateMemoryProfile("mem.prof")
		}()

		return fn(cmd, args)
	}
}

func rootFlagBinding(cmd *cobra.Command) {
	viper.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag(logLevelKey, cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("CSV2CHAIN_LOG_JSON", cmd.PersistentFlags().Lookup("log-json"))
}

// chainFlagBinding lets the chain flags override both the yaml and the env
// configuration.
func chainFlagBinding(cmd *cobra.Command, _ []string) {
	bindFlag(cmd, "rpc-url", "chain.rpc_url", "CSV2CHAIN_CHAIN_RPC_URL")
	bindFlag(cmd, "from", "chain.from", "CSV2CHAIN_CHAIN_FROM")
	bindFlag(cmd, "manifest", "contracts.manifest", "CSV2CHAIN_CONTRACTS_MANIFEST")
	bindFlag(cmd, "mode", "executor.mode", "CSV2CHAIN_EXECUTOR_MODE")
	bindFlag(cmd, "address", "server.address", "CSV2CHAIN_SERVER_ADDRESS")
	bindFlag(cmd, "postgres-url", "output.postgres.url", "CSV2CHAIN_OUTPUT_POSTGRES_URL")
}

func bindFlag(cmd *cobra.Command, flag string, keys ...string) {
	f := cmd.Flags().Lookup(flag)
	if f == nil || !f.Changed {
		return
	}
	for _, key := range keys {
		viper.BindPFlag(key, f)
	}
}

func version() string {
	if Env != "" {
		return Env + " (" + Version + ")"
	}
	return Version
}

func newInstrumentationProvider() (otel.InstrumentationProvider, error) {
	cfg, err := config.ParseInstrumentationConfig()
	if err != nil {
		return nil, fmt.Errorf("parsing instrumentation config: %w", err)
	}

	p, err := otel.NewInstrumentationProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialisating instrumentation provider: %w", err)
	}
	return p, nil
}
