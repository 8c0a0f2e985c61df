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
	"strings"
)

// Provider kinds accepted by Config.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderONNX   = "onnx"
)

// Default prefixes for nomic-style asymmetric embedding models.
const (
	DefaultDocumentPrefix = "search_document: "
	DefaultQueryPrefix    = "search_query: "
)

// Config holds configuration for embedding providers.
type Config struct {
	// Provider selects the text embedding backend: "openai" or "onnx".
	Provider string `yaml:"provider"`

	// EmbeddingHost is the base URL for an OpenAI-compatible embedding API.
	// Example: "http://localhost:11434/v1" for a local Ollama server
	EmbeddingHost string `yaml:"host"`

	// TextModel is the model identifier for remote text embeddings.
	// Example: "nomic-embed-text"
	TextModel string `yaml:"text_model"`

	// DocumentPrefix is prepended to clipboard text before embedding.
	DocumentPrefix string `yaml:"document_prefix"`

	// QueryPrefix is prepended to search queries before embedding.
	QueryPrefix string `yaml:"query_prefix"`

	// TextModelPath is the ONNX text model used when Provider is "onnx".
	TextModelPath string `yaml:"text_model_path"`

	// TokenizerPath is the tokenizer.json matching TextModelPath.
	TokenizerPath string `yaml:"tokenizer_path"`

	// ImageModelPath is an optional ONNX vision model. Without it image
	// entries are stored with no vector.
	ImageModelPath string `yaml:"image_model_path"`

	// RuntimeLibraryPath points at the onnxruntime shared library.
	RuntimeLibraryPath string `yaml:"runtime_library_path"`

	// Dimensions is the expected vector length. 0 accepts whatever the
	// model produces.
	Dimensions int `yaml:"dimensions"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the text embedding backend.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithTextModel sets the remote text model identifier.
func WithTextModel(model string) ConfigOption {
	return func(c *Config) {
		c.TextModel = model
	}
}

// WithDocumentPrefix sets the prefix applied to stored text.
func WithDocumentPrefix(prefix string) ConfigOption {
	return func(c *Config) {
		c.DocumentPrefix = prefix
	}
}

// WithQueryPrefix sets the prefix applied to queries.
func WithQueryPrefix(prefix string) ConfigOption {
	return func(c *Config) {
		c.QueryPrefix = prefix
	}
}

// WithONNXText sets the local text model and tokenizer paths.
func WithONNXText(modelPath, tokenizerPath string) ConfigOption {
	return func(c *Config) {
		c.TextModelPath = modelPath
		c.TokenizerPath = tokenizerPath
	}
}

// WithImageModel sets the local vision model path.
func WithImageModel(path string) ConfigOption {
	return func(c *Config) {
		c.ImageModelPath = path
	}
}

// WithRuntimeLibrary sets the onnxruntime shared library path.
func WithRuntimeLibrary(path string) ConfigOption {
	return func(c *Config) {
		c.RuntimeLibraryPath = path
	}
}

// WithDimensions sets the expected vector length.
func WithDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dim
	}
}

// DefaultConfig returns a Config for a local OpenAI-compatible server
// running a nomic text model.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		EmbeddingHost:  "http://localhost:11434/v1",
		TextModel:      "nomic-embed-text",
		DocumentPrefix: DefaultDocumentPrefix,
		QueryPrefix:    DefaultQueryPrefix,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithTextModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
		if c.TextModel == "" {
			return errors.New("ai config: TextModel is required")
		}
	case ProviderONNX:
		if c.TextModelPath == "" {
			return errors.New("ai config: TextModelPath is required for onnx")
		}
		if c.TokenizerPath == "" {
			return errors.New("ai config: TokenizerPath is required for onnx")
		}
	default:
		return errors.New("ai config: Provider must be openai or onnx")
	}
	if c.Dimensions < 0 {
		return errors.New("ai config: Dimensions cannot be negative")
	}
	return nil
}

// Document returns text with the document prefix applied.
func (c *Config) Document(text string) string {
	return c.DocumentPrefix + text
}

// Query returns text with the query prefix applied.
func (c *Config) Query(text string) string {
	return c.QueryPrefix + text
}
