// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	jsonlib "github.com/xataio/csv2chain/internal/json"
)

const trueStr = "true"

type printer interface {
	PrettyPrint() string
}

func print(cmd *cobra.Command, p printer) error {
	str := p.PrettyPrint()
	if cmd.Flags().Lookup("json").Value.String() == trueStr {
		var prettyJSON bytes.Buffer
		jsonData, err := jsonlib.Marshal(p)
		if err != nil {
			return err
		}
		if err := json.Indent(&prettyJSON, jsonData, "", "\t"); err != nil {
			return err
		}
		str = prettyJSON.String()
	}

	fmt.Println(str) //nolint:forbidigo
	return nil
}
