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


package ai

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultHost is a local Ollama server's OpenAI-compatible endpoint.
const DefaultHost = "http://localhost:11434/v1"

// Config selects the model servers and models behind an AIProvider.
// Embedding and generation may live on different hosts.
type Config struct {
	EmbeddingHost   string
	GenerationHost  string
	EmbeddingModel  string // e.g. "mxbai-embed-large"
	GenerationModel string // e.g. "deepseek-r1:1.5b"

	// APIKey is sent as the bearer token. Local servers accept any value.
	APIKey string

	// Temperature is the generation sampling temperature, 0 to 2.
	Temperature float64
}

// ConfigOption mutates a Config built by NewConfig.
type ConfigOption func(*Config)

func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) { c.EmbeddingHost = host }
}

func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) { c.GenerationHost = host }
}

// WithHost points embedding and generation at the same server.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) { c.EmbeddingModel = model }
}

func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) { c.GenerationModel = model }
}

func WithAPIKey(key string) ConfigOption {
	return func(c *Config) { c.APIKey = key }
}

func WithTemperature(t float64) ConfigOption {
	return func(c *Config) { c.Temperature = t }
}

// DefaultConfig targets a local Ollama with mxbai-embed-large and deepseek-r1:1.5b.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:   DefaultHost,
		GenerationHost:  DefaultHost,
		EmbeddingModel:  "mxbai-embed-large",
		GenerationModel: "deepseek-r1:1.5b",
		APIKey:          "none",
	}
}

// NewConfig applies opts over DefaultConfig.
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://gpu-box:11434"),
//	    ai.WithGenerationModel("qwen2.5:3b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize appends /v1 to hosts that lack it and fills a placeholder API key.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.GenerationHost = normalizeHost(c.GenerationHost)
	if strings.TrimSpace(c.APIKey) == "" {
		c.APIKey = "none"
	}
}

func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return host + "/v1"
}

func checkHost(field, host string) error {
	if host == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute URL", field, host)
	}
	return nil
}

// Validate normalizes c and reports every problem found.
func (c *Config) Validate() error {
	c.Normalize()

	var errs []error
	if err := checkHost("EmbeddingHost", c.EmbeddingHost); err != nil {
		errs = append(errs, err)
	}
	if err := checkHost("GenerationHost", c.GenerationHost); err != nil {
		errs = append(errs, err)
	}
	if c.EmbeddingModel == "" {
		errs = append(errs, errors.New("EmbeddingModel is required"))
	}
	if c.GenerationModel == "" {
		errs = append(errs, errors.New("GenerationModel is required"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("Temperature must be between 0 and 2, got %g", c.Temperature))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("ai config: %w", err)
	}
	return nil
}
