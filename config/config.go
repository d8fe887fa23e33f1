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

// Package config loads lectern settings.
//
// Values are layered: Default(), then the YAML file, then a .env file in the
// working directory, then LECTERN_* environment variables. Command-line flags
// are applied on top by the caller. The result is validated with struct tags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/lectern/ai"
	"github.com/poiesic/lectern/core"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. LECTERN_AI_GENERATION_MODEL.
const EnvPrefix = "lectern"

// Config holds all lectern settings.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"server"`
	Store      StoreConfig      `yaml:"store" envconfig:"store"`
	AI         AIConfig         `yaml:"ai" envconfig:"ai"`
	AssemblyAI AssemblyAIConfig `yaml:"assemblyai" envconfig:"assemblyai"`
	Chapters   ChaptersConfig   `yaml:"chapters" envconfig:"chapters"`
	Query      QueryConfig      `yaml:"query" envconfig:"query"`
	Workers    WorkersConfig    `yaml:"workers" envconfig:"workers"`
	Retry      RetryConfig      `yaml:"retry" envconfig:"retry"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"addr" validate:"required"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"allowed_origins"`
}

// StoreConfig selects and locates the vector store.
type StoreConfig struct {
	Driver     string `yaml:"driver" envconfig:"driver" validate:"oneof=badger bolt"`
	Path       string `yaml:"path" envconfig:"path" validate:"required_without=InMemory"`
	InMemory   bool   `yaml:"in_memory" envconfig:"in_memory"`
	Collection string `yaml:"collection" envconfig:"collection" validate:"required,max=255"`
	Metric     string `yaml:"metric" envconfig:"metric" validate:"oneof=ip cosine"`
}

// AIConfig locates the embedding and generation models.
type AIConfig struct {
	EmbeddingHost   string  `yaml:"embedding_host" envconfig:"embedding_host" validate:"required"`
	GenerationHost  string  `yaml:"generation_host" envconfig:"generation_host" validate:"required"`
	EmbeddingModel  string  `yaml:"embedding_model" envconfig:"embedding_model" validate:"required"`
	GenerationModel string  `yaml:"generation_model" envconfig:"generation_model" validate:"required"`
	APIKey          string  `yaml:"api_key" envconfig:"api_key"`
	Temperature     float64 `yaml:"temperature" envconfig:"temperature" validate:"gte=0,lte=2"`
}

// AssemblyAIConfig configures transcription.
type AssemblyAIConfig struct {
	APIKey       string `yaml:"api_key" envconfig:"api_key"`
	LanguageCode string `yaml:"language_code" envconfig:"language_code"`
}

// ChaptersConfig configures chapter segmentation.
type ChaptersConfig struct {
	Strategy         string  `yaml:"strategy" envconfig:"strategy" validate:"oneof=uniform semantic"`
	MinChapters      int     `yaml:"min_chapters" envconfig:"min_chapters" validate:"gte=1"`
	MaxChapters      int     `yaml:"max_chapters" envconfig:"max_chapters" validate:"gtefield=MinChapters"`
	IndexMaxChapters int     `yaml:"index_max_chapters" envconfig:"index_max_chapters" validate:"gtefield=MinChapters"`
	ScalingFactor    float64 `yaml:"scaling_factor" envconfig:"scaling_factor" validate:"gte=0"`
	Seed             uint64  `yaml:"seed" envconfig:"seed"`
	Inits            int     `yaml:"inits" envconfig:"inits" validate:"gte=1"`
}

// QueryConfig configures retrieval.
type QueryConfig struct {
	TopK int `yaml:"top_k" envconfig:"top_k" validate:"gte=1"`
}

// WorkersConfig sizes the worker pools. Zero selects a size from the CPU count.
type WorkersConfig struct {
	Embedding  int `yaml:"embedding" envconfig:"embedding" validate:"gte=0"`
	Extraction int `yaml:"extraction" envconfig:"extraction" validate:"gte=0"`
	BatchSize  int `yaml:"batch_size" envconfig:"batch_size" validate:"gte=1"`
}

// RetryConfig bounds retries of embedding calls during indexing.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts" envconfig:"max_attempts" validate:"gte=1"`
	InitialInterval time.Duration `yaml:"initial_interval" envconfig:"initial_interval" validate:"gte=0"`
	MaxInterval     time.Duration `yaml:"max_interval" envconfig:"max_interval" validate:"gtefield=InitialInterval"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration: a local Ollama server and
// an on-disk badger store.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	retry := ai.DefaultRetryPolicy()
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			RequestTimeout:  2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Store: StoreConfig{
			Driver:     "badger",
			Path:       "lectern-data",
			Collection: "my_rag_collection",
			Metric:     "ip",
		},
		AI: AIConfig{
			EmbeddingHost:   aiDefaults.EmbeddingHost,
			GenerationHost:  aiDefaults.GenerationHost,
			EmbeddingModel:  aiDefaults.EmbeddingModel,
			GenerationModel: aiDefaults.GenerationModel,
			APIKey:          aiDefaults.APIKey,
			Temperature:     aiDefaults.Temperature,
		},
		AssemblyAI: AssemblyAIConfig{
			LanguageCode: "en",
		},
		Chapters: ChaptersConfig{
			Strategy:         "uniform",
			MinChapters:      2,
			MaxChapters:      8,
			IndexMaxChapters: 6,
			ScalingFactor:    0.1,
			Seed:             42,
			Inits:            10,
		},
		Query: QueryConfig{
			TopK: 3,
		},
		Workers: WorkersConfig{
			BatchSize: 32,
		},
		Retry: RetryConfig{
			MaxAttempts:     retry.MaxAttempts,
			InitialInterval: retry.InitialInterval,
			MaxInterval:     retry.MaxInterval,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path (optional), .env and the environment.
// A missing file at path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays LECTERN_* environment variables. Unset variables keep
// their current values.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ToAIConfig converts the ai section to an ai.Config.
func (c *Config) ToAIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithGenerationHost(c.AI.GenerationHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithGenerationModel(c.AI.GenerationModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithTemperature(c.AI.Temperature),
	)
}

// RetryPolicy returns the retry section as an ai.RetryPolicy.
func (c *Config) RetryPolicy() ai.RetryPolicy {
	return ai.RetryPolicy{
		MaxAttempts:     c.Retry.MaxAttempts,
		InitialInterval: c.Retry.InitialInterval,
		MaxInterval:     c.Retry.MaxInterval,
	}
}

// MetricValue returns the configured similarity metric.
func (s StoreConfig) MetricValue() core.Metric {
	if s.Metric == "cosine" {
		return core.MetricCosine
	}
	return core.MetricInnerProduct
}
