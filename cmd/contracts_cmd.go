// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/csv2chain/pkg/contract"
)

var contractsCmd = &cobra.Command{
	Use:    "contracts",
	Short:  "Lists the contracts of the manifest, with their own and inherited functions",
	PreRun: chainFlagBinding,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := parseConfig()
		if err != nil {
			return err
		}

		provider, err := newContractProvider(cfg, logger)
		if err != nil {
			return err
		}

		contracts, err := provider.ListContracts(context.Background())
		if err != nil {
			return err
		}

		return print(cmd, newContractList(contracts))
	},
	Example: `
	csv2chain contracts --manifest contracts.yaml
	csv2chain contracts -c config.yaml --json`,
}

type contractList struct {
	Contracts []contractEntry `json:"contracts"`
}

type contractEntry struct {
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Functions []functionEntry `json:"functions"`
}

type functionEntry struct {
	Signature string `json:"signature"`
	Inherited bool   `json:"inherited"`
}

func newContractList(contracts []*contract.Contract) *contractList {
	list := &contractList{Contracts: make([]contractEntry, 0, len(contracts))}
	for _, c := range contracts {
		entry := contractEntry{Name: c.Name, Address: c.Address}
		for _, fn := range c.Functions {
			entry.Functions = append(entry.Functions, functionEntry{Signature: signature(fn)})
		}
		for _, fn := range c.InheritedFunctions {
			entry.Functions = append(entry.Functions, functionEntry{Signature: signature(fn), Inherited: true})
		}
		list.Contracts = append(list.Contracts, entry)
	}
	return list
}

func (l *contractList) PrettyPrint() string {
	data := pterm.TableData{{"CONTRACT", "ADDRESS", "FUNCTION", "INHERITED"}}
	for _, c := range l.Contracts {
		if len(c.Functions) == 0 {
			data = append(data, []string{c.Name, c.Address, "", ""})
		}
		for _, fn := range c.Functions {
			inherited := ""
			if fn.Inherited {
				inherited = "yes"
			}
			data = append(data, []string{c.Name, c.Address, fn.Signature, inherited})
		}
	}

	str, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err.Error()
	}
	return str
}

func signature(fn contract.Function) string {
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, strings.TrimSpace(p.Type+" "+p.Name))
	}
	return fmt.Sprintf("%s(%s)", fn.Name, strings.Join(params, ", "))
}
