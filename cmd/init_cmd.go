// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	pgsink "github.com/xataio/csv2chain/pkg/outputlog/postgres"
)

var errNoPostgresURL = errors.New("postgres output url is required")

var initCmd = &cobra.Command{
	Use:    "init",
	Short:  "Initialises the postgres output log journal, creating the csv2chain schema and its tables",
	PreRun: chainFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("initialising csv2chain journal...").Start()

		url, err := journalURL()
		if err != nil {
			sp.Fail(err.Error())
			return err
		}

		if err := pgsink.Init(context.Background(), url); err != nil {
			sp.Fail(err.Error())
			return err
		}

		sp.Success("csv2chain journal initialisation complete")
		return nil
	},
	Example: `
	csv2chain init --postgres-url <postgres-url>
	csv2chain init -c config.yaml
	csv2chain init -c config.env`,
}

var destroyCmd = &cobra.Command{
	Use:    "destroy",
	Short:  "Destroys the postgres output log journal, along with the csv2chain schema",
	PreRun: chainFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		sp, _ := pterm.DefaultSpinner.WithText("destroying csv2chain journal...").Start()

		url, err := journalURL()
		if err != nil {
			sp.Fail(err.Error())
			return err
		}

		if err := pgsink.Destroy(context.Background(), url); err != nil {
			sp.Fail(err.Error())
			return err
		}

		sp.Success("csv2chain journal destroy complete")
		return nil
	},
	Example: `
	csv2chain destroy --postgres-url <postgres-url>
	csv2chain destroy -c config.yaml`,
}

func journalURL() (string, error) {
	cfg, err := parseConfig()
	if err != nil {
		return "", fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Output.Postgres == nil || cfg.Output.Postgres.URL == "" {
		return "", errNoPostgresURL
	}
	return cfg.Output.Postgres.URL, nil
}
