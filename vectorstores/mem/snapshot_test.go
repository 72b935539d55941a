package mem

import (
	"testing"
	"time"

	"docquery/schema"
)

func TestSnapshot_EncodeDecode(t *testing.T) {
	ts := time.Now()
	original := &snapshot{collections: map[string][]*record{
		"default": {
			{
				id:     "/docs/a.txt#0",
				vector: []float32{0.1, 0.2, 0.3},
				doc: schema.Document{
					PageContent: "chunk text",
					Metadata: map[string]interface{}{
						"intKey":    42,
						"floatKey":  3.14,
						"stringKey": "value",
						"timeKey":   ts,
					},
				},
			},
		},
		"other": {
			{id: "x", vector: []float32{1}, doc: schema.Document{PageContent: "y"}},
		},
	}}

	data, err := original.marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	decoded := &snapshot{}
	if err := decoded.unmarshal(data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	collections := decoded.restore()
	if len(collections) != 2 {
		t.Fatalf("expected 2 collections, got %d", len(collections))
	}
	records := collections["default"]
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.id != "/docs/a.txt#0" {
		t.Errorf("id mismatch: %q", rec.id)
	}
	if len(rec.vector) != 3 || rec.vector[2] != 0.3 {
		t.Errorf("vector mismatch: %v", rec.vector)
	}
	if rec.doc.PageContent != "chunk text" {
		t.Errorf("content mismatch: %q", rec.doc.PageContent)
	}
	for key, value := range original.collections["default"][0].doc.Metadata {
		if key == "timeKey" {
			cloned := rec.doc.Metadata[key].(time.Time)
			if !cloned.Equal(ts) {
				t.Errorf("time metadata mismatch: %v vs %v", cloned, ts)
			}
			continue
		}
		if rec.doc.Metadata[key] != value {
			t.Errorf("metadata mismatch for %v: got %v, want %v", key, rec.doc.Metadata[key], value)
		}
	}
}

func TestSnapshot_UnsupportedMetadata(t *testing.T) {
	s := &snapshot{collections: map[string][]*record{
		"default": {
			{id: "x", doc: schema.Document{Metadata: map[string]interface{}{"bad": []string{"slice"}}}},
		},
	}}
	if _, err := s.marshal(); err == nil {
		t.Fatalf("expected error for unsupported metadata type")
	}
}
