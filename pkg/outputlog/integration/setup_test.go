// SPDX-License-Identifier: Apache-2.0

package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/xataio/csv2chain/internal/testcontainers"
	pgsink "github.com/xataio/csv2chain/pkg/outputlog/postgres"
)

var (
	pgurl        string
	kafkaBrokers []string
)

func TestMain(m *testing.M) {
	// if integration tests are not enabled, nothing to setup
	if os.Getenv("CSV2CHAIN_INTEGRATION_TESTS") != "" {
		ctx := context.Background()
		pgcleanup, err := testcontainers.SetupPostgresContainer(ctx, &pgurl, testcontainers.Postgres17)
		if err != nil {
			log.Fatal(err)
		}
		defer pgcleanup()

		if err := pgsink.Init(ctx, pgurl); err != nil {
			log.Fatal(err)
		}

		kafkacleanup, err := testcontainers.SetupKafkaContainer(ctx, &kafkaBrokers)
		if err != nil {
			log.Fatal(err)
		}
		defer kafkacleanup()
	}

	os.Exit(m.Run())
}
