// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	kafkalib "github.com/xataio/csv2chain/pkg/kafka"
	"github.com/xataio/csv2chain/pkg/outputlog/batch"
)

type Config struct {
	Kafka kafkalib.ConnConfig
	Batch batch.Config
}
