// Package qdrant stores chunk vectors in a Qdrant server over gRPC.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"docquery/schema"
	"docquery/vectorstores"
)

const (
	defaultHost = "localhost"
	defaultPort = 6334
)

// Store is a Qdrant backed vector store. Collections are created lazily
// with cosine distance and the dimension of the first stored vector.
type Store struct {
	client *qdrant.Client
}

// New connects to a Qdrant server. Empty host and zero port fall back to
// localhost:6334.
func New(host string, port int) (*Store, error) {
	if host == "" {
		host = defaultHost
	}
	if port == 0 {
		port = defaultPort
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &Store{client: client}, nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// AddDocuments embeds and upserts the documents as points.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, opts ...vectorstores.Option) ([]string, error) {
	options := vectorstores.NewOptions(opts...)
	if options.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if len(docs) == 0 {
		return nil, nil
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := options.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}
	if err := s.ensureCollection(ctx, options.Collection, len(vectors[0])); err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		id := fragmentID(doc)
		if id == "" {
			id = uuid.New().String()
		}
		ids[i] = id

		payload := map[string]any{
			"text": doc.PageContent,
			"id":   id,
		}
		for k, v := range doc.Metadata {
			payload[k] = v
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointUUID(id)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: options.Collection,
		Points:         points,
	}); err != nil {
		return nil, fmt.Errorf("upsert points: %w", err)
	}
	return ids, nil
}

// SimilaritySearch queries the collection for the k nearest points.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, opts ...vectorstores.Option) ([]schema.Document, error) {
	options := vectorstores.NewOptions(opts...)
	if options.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if k <= 0 {
		k = 10
	}
	qvec, err := options.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	exists, err := s.client.CollectionExists(ctx, options.Collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: options.Collection,
		Limit:          &limit,
		Query:          qdrant.NewQuery(qvec...),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}

	var docs []schema.Document
	for _, point := range points {
		if float64(point.Score) < options.MinScore {
			continue
		}
		metadata := make(map[string]interface{})
		for key, value := range point.Payload {
			metadata[key] = convertValue(value)
		}
		content, _ := metadata["text"].(string)
		delete(metadata, "text")
		if id, ok := metadata["id"].(string); ok {
			delete(metadata, "id")
			if _, present := metadata[schema.FragmentID]; !present {
				metadata[schema.FragmentID] = id
			}
		}
		docs = append(docs, schema.Document{PageContent: content, Metadata: metadata, Score: point.Score})
	}
	return docs, nil
}

// Remove deletes the point holding the given chunk id.
func (s *Store) Remove(ctx context.Context, id string, opts ...vectorstores.Option) error {
	options := vectorstores.NewOptions(opts...)
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: options.Collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(pointUUID(id))),
	})
	return err
}

func (s *Store) ensureCollection(ctx context.Context, name string, vectorSize int) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(vectorSize),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// pointUUID derives a stable point id from a chunk id; Qdrant accepts only
// UUID or integer ids.
func pointUUID(id string) string {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String()
}

func fragmentID(doc schema.Document) string {
	if doc.Metadata == nil {
		return ""
	}
	if id, ok := doc.Metadata[schema.FragmentID].(string); ok {
		return id
	}
	return ""
}

func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			out[i] = convertValue(item)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any)
		for k, item := range val.StructValue.Fields {
			out[k] = convertValue(item)
		}
		return out
	}
	return nil
}
