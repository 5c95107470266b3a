// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/xataio/csv2chain/internal/progress"
	loglib "github.com/xataio/csv2chain/pkg/log"
	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/plan"
)

var migrateCmd = &cobra.Command{
	Use:    "migrate",
	Short:  "Migrates the rows of a table into contract function calls, as described by a migration plan",
	PreRun: migrateFlagBinding,
	RunE:   withProfiling(withSignalWatcher(migrate)),
	Example: `
	csv2chain migrate --plan plan.yaml --rpc-url http://localhost:8545 --manifest contracts.yaml
	csv2chain migrate --plan plan.yaml --from 0x627306090abaB3A6e1400e9345bC60c78a8BEf57 --mode concurrent
	csv2chain migrate --plan plan.yaml -c config.yaml
	csv2chain migrate --plan plan.yaml -c config.env --log-level debug`,
}

var errMigrationFailures = errors.New("migration completed with errors")

func migrate(ctx context.Context) error {
	logger := newLogger()

	cfg, err := parseConfig()
	if err != nil {
		return err
	}

	p, err := plan.Load(viper.GetString("plan"))
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

	if err := p.LoadTable(e.session); err != nil {
		e.close()
		return err
	}
	if err := p.Apply(ctx, e.session); err != nil {
		e.close()
		return fmt.Errorf("applying plan: %w", err)
	}

	total := migration.PlannedCalls(e.session.Functions(), e.session.Table())
	bar := progress.NewCallsBar(total, "migrating...")
	run := e.session.Run(ctx, migration.RunOptions{
		From:     cfg.From,
		Progress: bar,
	})
	run.Wait()
	bar.Close()

	// flush the sinks before reporting
	if err := e.close(); err != nil {
		logger.Error(err, "closing migration engine")
	}

	msgs := e.log.Messages()
	printLines(os.Stdout, msgs)

	if failures := countFailures(msgs); failures > 0 {
		logger.Warn(errMigrationFailures, "migration finished", loglib.Fields{
			loglib.RunIDField: run.ID(),
			"failures":        failures,
			"calls":           total,
		})
		return fmt.Errorf("%w: %d of %d calls failed", errMigrationFailures, failures, total)
	}

	logger.Info("migration finished", loglib.Fields{
		loglib.RunIDField: run.ID(),
		"calls":           total,
	})
	return nil
}

func countFailures(msgs []outputlog.Message) int {
	failures := 0
	for _, msg := range msgs {
		if strings.HasPrefix(msg.Text, migration.ErrorPrefix) {
			failures++
		}
	}
	return failures
}

func migrateFlagBinding(cmd *cobra.Command, args []string) {
	viper.BindPFlag("plan", cmd.Flags().Lookup("plan"))
	chainFlagBinding(cmd, args)
}
