// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/workspace/server"
)

var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Serves the workspace API, to load tables, configure migration functions and start migrations over HTTP",
	PreRun: serveFlagBinding,
	RunE:   withProfiling(withSignalWatcher(serve)),
	Example: `
	csv2chain serve --rpc-url http://localhost:8545 --manifest contracts.yaml --address :9800
	csv2chain serve -c config.yaml --table voters.csv`,
}

const shutdownTimeout = 10 * time.Second

func serve(ctx context.Context) error {
	logger := newLogger()

	cfg, err := parseConfig()
	if err != nil {
		return err
	}

	instrumentationProvider, err := newInstrumentationProvider()
	if err != nil {
		return err
	}
	defer instrumentationProvider.Close()

	e, err := newEngine(ctx, logger, cfg, instrumentationProvider)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.close(); err != nil {
			logger.Error(err, "closing workspace engine")
		}
	}()

	if tablePath := viper.GetString("table"); tablePath != "" {
		raw, err := os.ReadFile(tablePath)
		if err != nil {
			return fmt.Errorf("reading table: %w", err)
		}
		if err := e.session.LoadTable(string(raw)); err != nil {
			return err
		}
		logger.Info("table loaded", loglib.Fields{"path": tablePath, "rows": e.session.Table().Len()})
	}

	srv := server.New(&cfg.Server, e.session, server.WithLogger(logger))

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func serveFlagBinding(cmd *cobra.Command, args []string) {
	viper.BindPFlag("table", cmd.Flags().Lookup("table"))
	chainFlagBinding(cmd, args)
}
