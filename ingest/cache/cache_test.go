package cache

import (
	"testing"
)

func TestHash(t *testing.T) {
	a, err := Hash([]byte("same content"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := Hash([]byte("same content"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a != b {
		t.Errorf("hash not deterministic: %d vs %d", a, b)
	}
	c, err := Hash([]byte("other content"))
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == c {
		t.Errorf("distinct content produced identical hash")
	}
}

func TestMap_RoundTrip(t *testing.T) {
	type entry struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	m := NewMap[string, entry]()
	m.Set("a", &entry{Name: "alpha", Count: 1})
	m.Set("b", &entry{Name: "beta", Count: 2})
	m.Delete("b")

	if m.Size() != 1 {
		t.Fatalf("expected 1 entry, got %d", m.Size())
	}
	data, err := m.Data()
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}

	loaded := NewMap[string, entry]()
	if err := loaded.Load(data); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, ok := loaded.Get("a")
	if !ok {
		t.Fatalf("entry lost in round trip")
	}
	if got.Name != "alpha" || got.Count != 1 {
		t.Errorf("unexpected entry %+v", got)
	}
	if _, ok := loaded.Get("b"); ok {
		t.Errorf("deleted entry resurrected")
	}
	if len(loaded.Keys()) != 1 {
		t.Errorf("unexpected keys %v", loaded.Keys())
	}
}
