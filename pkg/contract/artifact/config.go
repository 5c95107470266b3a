// SPDX-License-Identifier: Apache-2.0

package artifact

type Config struct {
	// ManifestPath is the path to the YAML manifest listing the contracts.
	// Artifact paths in the manifest are relative to its directory.
	ManifestPath string
	// NetworkID selects the deployed address from the artifact networks
	// section. It overrides the manifest network id when set.
	NetworkID string
}

type manifest struct {
	NetworkID string          `yaml:"network_id"`
	Contracts []manifestEntry `yaml:"contracts"`
}

type manifestEntry struct {
	Name     string   `yaml:"name"`
	Artifact string   `yaml:"artifact"`
	Address  string   `yaml:"address"`
	Inherits []string `yaml:"inherits"`
}
