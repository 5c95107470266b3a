// SPDX-License-Identifier: Apache-2.0

package otel

import (
	"runtime/debug"
	"sync"
)

// commitOnce returns the git commit hash the binary was built from, or
// "unknown" when the build info doesn't carry `vcs.revision` (go run, tests).
var commitOnce = sync.OnceValue(func() string {
	const unknownCommitName = "unknown"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknownCommitName
	}

	for _, v := range info.Settings {
		if v.Key == "vcs.revision" {
			return v.Value
		}
	}

	return unknownCommitName
})

func version() string {
	return commitOnce()
}
