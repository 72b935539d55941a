package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StoreType != StoreSQLiteVec {
		t.Errorf("default store type: %q", cfg.StoreType)
	}
	if cfg.ChunkSize != 1000 || cfg.ChunkOverlap != 100 {
		t.Errorf("default chunking: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TargetSourceChunks != 4 {
		t.Errorf("default target source chunks: %d", cfg.TargetSourceChunks)
	}
}

func TestLoad_FileAndExpansion(t *testing.T) {
	t.Setenv("TEST_DOCS_ROOT", "/srv/docs")
	location := filepath.Join(t.TempDir(), "config.yaml")
	content := `sourceDirectory: ${TEST_DOCS_ROOT}/in
persistDirectory: ${TEST_DOCS_ROOT}/db
modelType: lmstudio
chunkSize: 500
chunkOverlap: 50
`
	if err := os.WriteFile(location, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(location)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SourceDirectory != "/srv/docs/in" {
		t.Errorf("env expansion failed: %q", cfg.SourceDirectory)
	}
	if cfg.ModelType != ModelLMStudio {
		t.Errorf("model type not read: %q", cfg.ModelType)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking not read: size=%d overlap=%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	location := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(location, []byte("model: from-file\nchunkSize: 800\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MODEL", "from-env")
	t.Setenv("CHUNK_SIZE", "600")
	t.Setenv("TARGET_SOURCE_CHUNKS", "7")

	cfg, err := Load(location)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model != "from-env" {
		t.Errorf("env should win over file: %q", cfg.Model)
	}
	if cfg.ChunkSize != 600 {
		t.Errorf("env int override failed: %d", cfg.ChunkSize)
	}
	if cfg.TargetSourceChunks != 7 {
		t.Errorf("env int override failed: %d", cfg.TargetSourceChunks)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(*Config) {}, true},
		{"qdrant store", func(c *Config) { c.StoreType = StoreQdrant }, true},
		{"unknown store", func(c *Config) { c.StoreType = "chroma" }, false},
		{"unknown embeddings", func(c *Config) { c.EmbeddingsType = "bert" }, false},
		{"unknown model", func(c *Config) { c.ModelType = "gpt4all" }, false},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, false},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }, false},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 1000 }, false},
		{"zero target chunks", func(c *Config) { c.TargetSourceChunks = 0 }, false},
		{"missing source", func(c *Config) { c.SourceDirectory = "" }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.valid && err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
