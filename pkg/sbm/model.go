// Package sbm implements nested degree-corrected stochastic block model
// inference over a network hierarchy: Metropolis-Hastings move proposal and
// scoring, sweep-based MCMC, degree-corrected microcanonical entropy, and
// greedy agglomerative merging with a collapse controller for model-size
// search.
package sbm

import (
	"github.com/rs/zerolog"

	"github.com/blockmodel/sbm-inference-service/pkg/network"
	"github.com/blockmodel/sbm-inference-service/pkg/sampler"
)

// Model ties a network hierarchy to a seeded sampler and the inference
// parameters. All operations mutate the network in place and consume the
// sampler in a fixed order, so a fixed seed reproduces a run exactly.
// Not safe for concurrent use.
type Model struct {
	net    *network.Network
	smp    *sampler.Sampler
	cfg    *Config
	logger zerolog.Logger
}

// New creates a model over a network. The sampler is seeded from the
// configuration.
func New(net *network.Network, cfg *Config) *Model {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Model{
		net:    net,
		smp:    sampler.New(cfg.RandomSeed()),
		cfg:    cfg,
		logger: cfg.CreateLogger(),
	}
}

// Network returns the underlying hierarchy.
func (m *Model) Network() *network.Network { return m.net }

// InitializeBlocks assigns block membership at a level: numBlocks < 0 gives
// every node its own block, otherwise numBlocks random blocks per type.
func (m *Model) InitializeBlocks(level, numBlocks int) error {
	return m.net.InitializeBlocks(level, numBlocks, m.smp)
}
