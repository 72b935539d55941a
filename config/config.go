// Package config resolves runtime settings from an optional YAML file, a
// .env file and environment variables. Environment variables win over the
// file; ${VAR} references inside the file are expanded.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreSQLiteVec = "sqlitevec"
	StoreQdrant    = "qdrant"
	StoreMem       = "mem"
)

// Embeddings backends.
const (
	EmbeddingsOllama      = "ollama"
	EmbeddingsOpenAI      = "openai"
	EmbeddingsHuggingFace = "huggingface"
	EmbeddingsSimple      = "simple"
)

// Model backends.
const (
	ModelOllama   = "ollama"
	ModelOpenAI   = "openai"
	ModelLMStudio = "lmstudio"
	ModelLlamaCpp = "llamacpp"
)

// Config holds all runtime settings.
type Config struct {
	// SourceDirectory is the document tree to ingest.
	SourceDirectory string `yaml:"sourceDirectory"`
	// PersistDirectory holds the vector database and ingest cache.
	PersistDirectory string `yaml:"persistDirectory"`
	// Collection is the logical dataset within the store.
	Collection string `yaml:"collection"`

	// StoreType selects the vector store backend: sqlitevec, qdrant or mem.
	StoreType string `yaml:"storeType"`
	// QdrantHost and QdrantPort locate the Qdrant server for storeType qdrant.
	QdrantHost string `yaml:"qdrantHost"`
	QdrantPort int    `yaml:"qdrantPort"`

	// EmbeddingsType selects the embeddings backend: ollama, openai,
	// huggingface or simple.
	EmbeddingsType string `yaml:"embeddingsType"`
	// EmbeddingsModel names the embedding model where the backend takes one.
	EmbeddingsModel string `yaml:"embeddingsModel"`
	// EmbeddingsBaseURL overrides the embeddings server URL.
	EmbeddingsBaseURL string `yaml:"embeddingsBaseURL"`

	// ModelType selects the generation backend: ollama, openai, lmstudio
	// or llamacpp.
	ModelType string `yaml:"modelType"`
	// Model names the generation model where the backend takes one.
	Model string `yaml:"model"`
	// ModelBaseURL overrides the generation server URL.
	ModelBaseURL string `yaml:"modelBaseURL"`
	// ModelContextSize is the model context window hint.
	ModelContextSize int `yaml:"modelContextSize"`
	// OpenAIAPIKey authenticates OpenAI requests.
	OpenAIAPIKey string `yaml:"openaiAPIKey"`

	// ChunkSize and ChunkOverlap control text splitting, in characters.
	ChunkSize    int `yaml:"chunkSize"`
	ChunkOverlap int `yaml:"chunkOverlap"`
	// TargetSourceChunks is the number of passages retrieved per question.
	TargetSourceChunks int `yaml:"targetSourceChunks"`
	// MaxFileSize caps ingestable file size in bytes; zero means no cap.
	MaxFileSize int `yaml:"maxFileSize"`
	// IngestWorkers bounds ingest concurrency; zero means NumCPU-1.
	IngestWorkers int `yaml:"ingestWorkers"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		SourceDirectory:    "source_documents",
		PersistDirectory:   "db",
		Collection:         "default",
		StoreType:          StoreSQLiteVec,
		EmbeddingsType:     EmbeddingsOllama,
		EmbeddingsModel:    "nomic-embed-text",
		ModelType:          ModelOllama,
		Model:              "llama3",
		ChunkSize:          1000,
		ChunkOverlap:       100,
		TargetSourceChunks: 4,
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// location, then environment variables. A .env file in the working
// directory is folded into the environment first.
func Load(location string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if location != "" {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", location, err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", location, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.SourceDirectory, "SOURCE_DIRECTORY")
	setString(&c.PersistDirectory, "PERSIST_DIRECTORY")
	setString(&c.Collection, "COLLECTION")
	setString(&c.StoreType, "STORE_TYPE")
	setString(&c.QdrantHost, "QDRANT_URL")
	setInt(&c.QdrantPort, "QDRANT_PORT")
	setString(&c.EmbeddingsType, "EMBEDDINGS_TYPE")
	setString(&c.EmbeddingsModel, "EMBEDDINGS_MODEL_NAME")
	setString(&c.EmbeddingsBaseURL, "EMBEDDINGS_BASE_URL")
	setString(&c.ModelType, "MODEL_TYPE")
	setString(&c.Model, "MODEL")
	setString(&c.ModelBaseURL, "MODEL_BASE_URL")
	setInt(&c.ModelContextSize, "MODEL_N_CTX")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setInt(&c.ChunkSize, "CHUNK_SIZE")
	setInt(&c.ChunkOverlap, "CHUNK_OVERLAP")
	setInt(&c.TargetSourceChunks, "TARGET_SOURCE_CHUNKS")
	setInt(&c.MaxFileSize, "MAX_FILE_SIZE")
	setInt(&c.IngestWorkers, "INGEST_WORKERS")
}

// Validate rejects unknown backends and inconsistent chunk sizing.
func (c *Config) Validate() error {
	switch strings.ToLower(c.StoreType) {
	case StoreSQLiteVec, StoreQdrant, StoreMem:
	default:
		return fmt.Errorf("unknown store type %q (supported: %s, %s, %s)", c.StoreType, StoreSQLiteVec, StoreQdrant, StoreMem)
	}
	switch strings.ToLower(c.EmbeddingsType) {
	case EmbeddingsOllama, EmbeddingsOpenAI, EmbeddingsHuggingFace, EmbeddingsSimple:
	default:
		return fmt.Errorf("unknown embeddings type %q (supported: %s, %s, %s, %s)", c.EmbeddingsType, EmbeddingsOllama, EmbeddingsOpenAI, EmbeddingsHuggingFace, EmbeddingsSimple)
	}
	switch strings.ToLower(c.ModelType) {
	case ModelOllama, ModelOpenAI, ModelLMStudio, ModelLlamaCpp:
	default:
		return fmt.Errorf("unknown model type %q (supported: %s, %s, %s, %s)", c.ModelType, ModelOllama, ModelOpenAI, ModelLMStudio, ModelLlamaCpp)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TargetSourceChunks <= 0 {
		return fmt.Errorf("target source chunks must be positive, got %d", c.TargetSourceChunks)
	}
	if c.SourceDirectory == "" {
		return fmt.Errorf("source directory is required")
	}
	if c.PersistDirectory == "" {
		return fmt.Errorf("persist directory is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}
