// SPDX-License-Identifier: Apache-2.0

package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		f1, f2 Fields

		wantFields Fields
	}{
		{
			name:       "both nil",
			wantFields: Fields{},
		},
		{
			name:       "disjoint",
			f1:         Fields{RunIDField: "run-1"},
			f2:         Fields{RowField: 3},
			wantFields: Fields{RunIDField: "run-1", RowField: 3},
		},
		{
			name:       "second map wins on conflict",
			f1:         Fields{ModuleField: "a"},
			f2:         Fields{ModuleField: "b"},
			wantFields: Fields{ModuleField: "b"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.wantFields, MergeFields(tc.f1, tc.f2))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	require.IsType(t, &NoopLogger{}, NewLogger(nil))
	require.IsType(t, &NoopLogger{}, WithModule(nil, "executor"))

	l := NewNoopLogger()
	require.Equal(t, l, NewLogger(l))
}
