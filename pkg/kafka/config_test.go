// SPDX-License-Identifier: Apache-2.0

package kafka

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopicConfig_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config TopicConfig

		wantPartitions  int
		wantReplication int
	}{
		{
			name:            "defaults",
			config:          TopicConfig{Name: "t"},
			wantPartitions:  defaultNumPartitions,
			wantReplication: defaultReplicationFactor,
		},
		{
			name:            "replication set without partitions",
			config:          TopicConfig{Name: "t", ReplicationFactor: 3},
			wantPartitions:  defaultNumPartitions,
			wantReplication: 3,
		},
		{
			name:            "custom",
			config:          TopicConfig{Name: "t", NumPartitions: 6, ReplicationFactor: 2},
			wantPartitions:  6,
			wantReplication: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.wantPartitions, tc.config.numPartitions())
			require.Equal(t, tc.wantReplication, tc.config.replicationFactor())
		})
	}
}

func TestMessage_Size(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3, Message{Key: []byte("key"), Value: []byte("abc")}.Size())
	require.True(t, Message{}.IsEmpty())
}
