// SPDX-License-Identifier: Apache-2.0

// Package postgres holds the schema migrations of the postgres output log
// store.
package postgres

import "embed"

//go:embed *.sql
var FS embed.FS
