package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEntityCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.json")

	cache := EntityCache{}
	cache.Put("persons", "p_1", "id-1")
	cache.Put("persons", "p_2", "id-2")
	cache.Put("work", "w_9", "id-3")

	if err := cache.Save(path); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	loaded := LoadEntityCache(path)
	if !reflect.DeepEqual(loaded, cache) {
		t.Fatalf("expected %v, got %v", cache, loaded)
	}

	id, ok := loaded.Get("persons", "p_1")
	if !ok || id != "id-1" {
		t.Fatalf("expected id-1, got %q (ok=%v)", id, ok)
	}
	if _, ok := loaded.Get("persons", "missing"); ok {
		t.Fatal("expected miss for unknown name")
	}
	if _, ok := loaded.Get("places", "p_1"); ok {
		t.Fatal("expected miss for unknown type")
	}
}

func TestRelationCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relations.json")

	cache := RelationCache{}
	cache.Append("author_of", "persons", "r-1")
	cache.Append("author_of", "persons", "r-2")
	cache.Append("author_of", "persons", "r-1")
	cache.Append("located_in", "work", "r-3")

	if err := cache.Save(path); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	loaded := LoadRelationCache(path)
	if !reflect.DeepEqual(loaded, cache) {
		t.Fatalf("expected %v, got %v", cache, loaded)
	}
	if got := loaded["author_of"]["persons"]; len(got) != 2 {
		t.Fatalf("expected 2 ids, got %v", got)
	}
}

func TestLoadRelationCacheDedupesIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relations.json")
	raw := []byte(`{"author_of":{"persons":["r-1","r-2","r-1",""]}}`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	loaded := LoadRelationCache(path)
	want := []string{"r-1", "r-2"}
	if got := loaded["author_of"]["persons"]; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLoadCacheMissingFile(t *testing.T) {
	dir := t.TempDir()

	entities := LoadEntityCache(filepath.Join(dir, "entities.json"))
	if len(entities) != 0 {
		t.Fatalf("expected empty cache, got %v", entities)
	}

	relations := LoadRelationCache(filepath.Join(dir, "relations.json"))
	if len(relations) != 0 {
		t.Fatalf("expected empty cache, got %v", relations)
	}
}

func TestLoadCacheCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entities.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	cache := LoadEntityCache(path)
	if len(cache) != 0 {
		t.Fatalf("expected empty cache for corrupt file, got %v", cache)
	}

	// A corrupt cache must still be usable and savable afterwards.
	cache.Put("persons", "p_1", "id-1")
	if err := cache.Save(path); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	reloaded := LoadEntityCache(path)
	if id, ok := reloaded.Get("persons", "p_1"); !ok || id != "id-1" {
		t.Fatalf("expected id-1 after rewrite, got %q (ok=%v)", id, ok)
	}
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "entities.json")
	cache := EntityCache{}
	cache.Put("persons", "p_1", "id-1")
	if err := cache.Save(path); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file to exist: %v", err)
	}
}
