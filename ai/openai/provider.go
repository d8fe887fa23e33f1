// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/lectern/ai"
)

// Provider bundles the embedding and generation clients for one pair of
// OpenAI-compatible hosts.
type Provider struct {
	embedder  *Embedder
	generator ai.Generator
	hosts     [2]string
	logger    *slog.Logger
}

var _ ai.AIProvider = (*Provider)(nil)

// NewProvider validates config and builds both clients. Generated text is
// passed through ai.NewSanitizingGenerator before it reaches callers.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, fmt.Errorf("openai provider: %w", err)
	}
	generator, err := newGenerator(config)
	if err != nil {
		return nil, fmt.Errorf("openai provider: %w", err)
	}

	p := &Provider{
		embedder:  embedder,
		generator: ai.NewSanitizingGenerator(generator),
		hosts:     [2]string{config.EmbeddingHost, config.GenerationHost},
		logger:    slog.Default().With("component", "openai-provider"),
	}
	p.logger.Debug("provider ready",
		"embeddingHost", config.EmbeddingHost,
		"embeddingModel", config.EmbeddingModel,
		"generationHost", config.GenerationHost,
		"generationModel", config.GenerationModel)
	return p, nil
}

func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the HTTP clients hold no connections worth draining.
func (p *Provider) Close() error {
	p.logger.Debug("closing provider", "embeddingHost", p.hosts[0], "generationHost", p.hosts[1])
	return nil
}
