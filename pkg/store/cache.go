package store

import (
	"encoding/json"
	"errors"
	"folio/pkg/logger"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	EntityCacheFile   = "entities.json"
	RelationCacheFile = "relations.json"
)

// EntityCache maps entity type to normalized name to document id. It is
// the authoritative record of already-created entities; it grows
// monotonically and is fully rewritten after the entity phase.
type EntityCache map[string]map[string]string

// RelationCache maps relation name to source type to the relation ids
// created under that pairing. Append-only per run, rewritten after the
// relation phase.
type RelationCache map[string]map[string][]string

func (c EntityCache) Get(typeName, name string) (string, bool) {
	id, ok := c[typeName][name]
	return id, ok
}

func (c EntityCache) Put(typeName, name, id string) {
	byName, ok := c[typeName]
	if !ok {
		byName = make(map[string]string)
		c[typeName] = byName
	}
	byName[name] = id
}

// Append records a relation id under (relationName, srcType), skipping
// ids already present.
func (c RelationCache) Append(relationName, srcType, id string) {
	bySrc, ok := c[relationName]
	if !ok {
		bySrc = make(map[string][]string)
		c[relationName] = bySrc
	}
	for _, existing := range bySrc[srcType] {
		if existing == id {
			return
		}
	}
	bySrc[srcType] = append(bySrc[srcType], id)
}

// LoadEntityCache reads the entity cache file. A missing file starts an
// empty cache silently; an unreadable or corrupt file starts an empty
// cache with a warning. Never fatal.
func LoadEntityCache(path string) EntityCache {
	cache := EntityCache{}
	if !loadJSONCache(path, &cache) {
		return EntityCache{}
	}
	return cache
}

// LoadRelationCache reads the relation cache file with the same
// missing/corrupt semantics as LoadEntityCache. Id lists are
// deduplicated on load so Append's no-duplicates invariant holds even
// for files written by older runs or edited by hand.
func LoadRelationCache(path string) RelationCache {
	cache := RelationCache{}
	if !loadJSONCache(path, &cache) {
		return RelationCache{}
	}
	for _, bySrc := range cache {
		for srcType, ids := range bySrc {
			bySrc[srcType] = DedupeStrings(ids)
		}
	}
	return cache
}

func loadJSONCache(path string, out any) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("[Cache] Failed to read cache file, starting empty", "path", path, "error", err)
			return false
		}
		logger.Debug("[Cache] No cache file found, starting empty", "path", path)
		return true
	}

	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn("[Cache] Corrupt cache file, starting empty", "path", path, "error", err)
		return false
	}
	return true
}

func (c EntityCache) Save(path string) error {
	return saveJSONCache(path, c)
}

func (c RelationCache) Save(path string) error {
	return saveJSONCache(path, c)
}

func saveJSONCache(path string, cache any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
