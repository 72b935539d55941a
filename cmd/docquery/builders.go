package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"docquery/config"
	"docquery/embeddings"
	"docquery/embeddings/huggingface"
	"docquery/embeddings/ollama"
	"docquery/embeddings/openai"
	"docquery/llm"
	llmllamacpp "docquery/llm/llamacpp"
	llmlmstudio "docquery/llm/lmstudio"
	llmollama "docquery/llm/ollama"
	llmopenai "docquery/llm/openai"
	"docquery/qa"
	"docquery/vectorstores"
	"docquery/vectorstores/mem"
	"docquery/vectorstores/qdrant"
	"docquery/vectorstores/sqlitevec"
)

func buildStore(cfg *config.Config) (vectorstores.Store, error) {
	switch strings.ToLower(cfg.StoreType) {
	case config.StoreSQLiteVec:
		return sqlitevec.New(
			sqlitevec.WithDSN(filepath.Join(cfg.PersistDirectory, "docquery.sqlite")),
			sqlitevec.WithEmbeddingModel(cfg.EmbeddingsModel))
	case config.StoreQdrant:
		return qdrant.New(cfg.QdrantHost, cfg.QdrantPort)
	case config.StoreMem:
		return mem.New(mem.WithLocation(filepath.Join(cfg.PersistDirectory, fmt.Sprintf("mem_%s.bin", cfg.Collection))))
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.StoreType)
	}
}

func buildEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch strings.ToLower(cfg.EmbeddingsType) {
	case config.EmbeddingsOllama:
		return ollama.NewEmbedder(cfg.EmbeddingsModel, cfg.EmbeddingsBaseURL), nil
	case config.EmbeddingsOpenAI:
		return openai.NewEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingsModel, cfg.EmbeddingsBaseURL), nil
	case config.EmbeddingsHuggingFace:
		return huggingface.NewEmbedder(cfg.EmbeddingsBaseURL), nil
	case config.EmbeddingsSimple:
		return embeddings.NewSimpleEmbedder(0), nil
	default:
		return nil, fmt.Errorf("unknown embeddings type %q", cfg.EmbeddingsType)
	}
}

func buildModel(cfg *config.Config) (llm.Model, error) {
	switch strings.ToLower(cfg.ModelType) {
	case config.ModelOllama:
		return llmollama.New(cfg.Model, llmollama.WithBaseURL(cfg.ModelBaseURL)), nil
	case config.ModelOpenAI:
		return llmopenai.New(cfg.OpenAIAPIKey, cfg.Model, llmopenai.WithBaseURL(cfg.ModelBaseURL)), nil
	case config.ModelLMStudio:
		return llmlmstudio.New(cfg.Model, llmlmstudio.WithBaseURL(cfg.ModelBaseURL)), nil
	case config.ModelLlamaCpp:
		return llmllamacpp.New(llmllamacpp.WithBaseURL(cfg.ModelBaseURL)), nil
	default:
		return nil, fmt.Errorf("unknown model type %q", cfg.ModelType)
	}
}

func buildQA(cfg *config.Config) (*qa.Service, func(), error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	model, err := buildModel(cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	svc := qa.New(store, embedder, model,
		qa.WithCollection(cfg.Collection),
		qa.WithSourceChunks(cfg.TargetSourceChunks))
	return svc, func() { _ = store.Close() }, nil
}
