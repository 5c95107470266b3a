// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/xataio/csv2chain/pkg/contract"
	loglib "github.com/xataio/csv2chain/pkg/log"
)

// Provider is a contract model provider backed by a YAML manifest and
// compiled contract artifacts (truffle/hardhat json or a bare ABI array).
type Provider struct {
	logger       loglib.Logger
	manifestPath string
	networkID    string
	readFile     func(string) ([]byte, error)
}

type Option func(*Provider)

var (
	ErrUnknownParent       = errors.New("unknown parent contract")
	ErrInheritanceCycle    = errors.New("inheritance cycle")
	ErrDuplicateContract   = errors.New("duplicate contract name")
	errMissingABI          = errors.New("artifact has no abi")
	errMissingManifestPath = errors.New("contracts manifest path not provided")
)

func NewProvider(cfg *Config, opts ...Option) (*Provider, error) {
	if cfg.ManifestPath == "" {
		return nil, errMissingManifestPath
	}

	p := &Provider{
		logger:       loglib.NewNoopLogger(),
		manifestPath: cfg.ManifestPath,
		networkID:    cfg.NetworkID,
		readFile:     os.ReadFile,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(p *Provider) {
		p.logger = loglib.WithModule(l, "contract_artifact_provider")
	}
}

// ListContracts reads the manifest and the artifacts it references, resolving
// the inherited functions of every contract. Contracts are returned in
// manifest order.
func (p *Provider) ListContracts(ctx context.Context) ([]*contract.Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	manifestBytes, err := p.readFile(p.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading contracts manifest: %w", err)
	}

	m := manifest{}
	if err := yaml.Unmarshal(manifestBytes, &m); err != nil {
		return nil, fmt.Errorf("parsing contracts manifest: %w", err)
	}

	networkID := m.NetworkID
	if p.networkID != "" {
		networkID = p.networkID
	}

	baseDir := filepath.Dir(p.manifestPath)
	loaded := make(map[string]*loadedArtifact, len(m.Contracts))
	for _, entry := range m.Contracts {
		if _, found := loaded[entry.Name]; found {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateContract, entry.Name)
		}
		a, err := p.loadArtifact(baseDir, entry, networkID)
		if err != nil {
			return nil, fmt.Errorf("loading contract %s: %w", entry.Name, err)
		}
		loaded[entry.Name] = a
	}

	resolver := newInheritanceResolver(loaded)
	contracts := make([]*contract.Contract, 0, len(m.Contracts))
	for _, entry := range m.Contracts {
		c, err := resolver.resolve(entry.Name)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}

	p.logger.Debug("contracts loaded", loglib.Fields{
		"manifest":   p.manifestPath,
		"network_id": networkID,
		"count":      len(contracts),
	})

	return contracts, nil
}

type loadedArtifact struct {
	entry   manifestEntry
	abi     *abi.ABI
	address string
}

func (p *Provider) loadArtifact(baseDir string, entry manifestEntry, networkID string) (*loadedArtifact, error) {
	path := entry.Artifact
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	data, err := p.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	parsed := gjson.ParseBytes(data)
	abiJSON := parsed
	if !parsed.IsArray() {
		abiJSON = parsed.Get("abi")
	}
	if !abiJSON.Exists() || !abiJSON.IsArray() {
		return nil, errMissingABI
	}

	contractABI, err := abi.JSON(strings.NewReader(abiJSON.Raw))
	if err != nil {
		return nil, fmt.Errorf("parsing abi: %w", err)
	}

	address := entry.Address
	if address == "" && networkID != "" {
		address = parsed.Get("networks." + networkID + ".address").String()
	}
	if address == "" {
		// hardhat-deploy artifacts keep the address at the top level
		address = parsed.Get("address").String()
	}

	return &loadedArtifact{
		entry:   entry,
		abi:     &contractABI,
		address: address,
	}, nil
}
