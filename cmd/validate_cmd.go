// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/csv2chain/pkg/migration"
	"github.com/xataio/csv2chain/pkg/outputlog"
	"github.com/xataio/csv2chain/pkg/plan"
	"github.com/xataio/csv2chain/pkg/table"
	"github.com/xataio/csv2chain/pkg/workspace"
)

var validateCmd = &cobra.Command{
	Use:    "validate",
	Short:  "Validates a migration plan against its table and the contracts manifest, without reaching the chain",
	PreRun: validateFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("validating migration plan...").Start()

		status, err := validatePlan(context.Background())
		if err != nil {
			sp.Fail(err.Error())
			return err
		}

		if len(status.Issues) == 0 {
			sp.Success("migration plan is valid")
		} else {
			sp.Warning(fmt.Sprintf("migration plan validation identified %d issues", len(status.Issues)))
		}

		if err := print(cmd, status); err != nil {
			return fmt.Errorf("failed to format plan validation status: %w", err)
		}
		return nil
	},
	Example: `
	csv2chain validate --plan plan.yaml --manifest contracts.yaml
	csv2chain validate --plan plan.yaml -c config.yaml --json`,
}

type planStatus struct {
	Plan   string   `json:"plan"`
	Table  string   `json:"table"`
	Rows   int      `json:"rows"`
	Calls  int      `json:"calls"`
	Issues []string `json:"issues"`
}

func (s *planStatus) PrettyPrint() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "plan: %s\ntable: %s (%d rows)\nplanned calls: %d\n", s.Plan, s.Table, s.Rows, s.Calls)
	for _, issue := range s.Issues {
		fmt.Fprintf(&sb, " - %s\n", issue)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func validatePlan(ctx context.Context) (*planStatus, error) {
	logger := newLogger()

	cfg, err := parseConfig()
	if err != nil {
		return nil, err
	}

	planPath := viper.GetString("plan")
	p, err := plan.Load(planPath)
	if err != nil {
		return nil, err
	}

	provider, err := newContractProvider(cfg, logger)
	if err != nil {
		return nil, err
	}

	log := outputlog.New(outputlog.WithLogger(logger))
	opts := []workspace.Option{workspace.WithLogger(logger)}
	if cfg.Delimiter != 0 {
		opts = append(opts, workspace.WithTableOptions(table.WithDelimiter(cfg.Delimiter)))
	}
	// validation never starts a run, there is no chain client
	session := workspace.NewSession(provider, log, migration.NewExecutor(nil, log), opts...)

	if err := p.LoadTable(session); err != nil {
		return nil, err
	}

	issues, err := p.Validate(ctx, session)
	if err != nil {
		return nil, err
	}

	status := &planStatus{
		Plan:   planPath,
		Table:  p.Table,
		Rows:   session.Table().Len(),
		Calls:  migration.PlannedCalls(session.Functions(), session.Table()),
		Issues: make([]string, 0, len(issues)),
	}
	for _, issue := range issues {
		status.Issues = append(status.Issues, issue.Error())
	}
	return status, nil
}

func validateFlagBinding(cmd *cobra.Command, args []string) {
	viper.BindPFlag("plan", cmd.Flags().Lookup("plan"))
	chainFlagBinding(cmd, args)
}
