package common

// Row represents a single spreadsheet row as a mapping from column header
// to the raw cell value. Cells that were empty in the source sheet are
// absent from the map rather than present with an empty value, so callers
// can distinguish "no data" from "data that normalizes to nothing".
//
// Values are kept untyped because spreadsheet parsers hand back a mix of
// strings, numbers, and booleans depending on the source format.
type Row map[string]any

// Entity represents one candidate node for the document store, produced by
// classifying a cell value against the known column and identifier-prefix
// tables. Name is the normalized cell value, Type the canonical entity
// type it resolved to.
//
// Params carries extra property columns captured from the same row, keyed
// by document field name. Entities resolved from dynamic identifier
// columns always carry empty Params.
type Entity struct {
	Type   string            `json:"type"`
	Name   string            `json:"name"`
	Params map[string]string `json:"params"`
}

// Key returns the identity under which the entity is cached and
// deduplicated.
func (e Entity) Key() EntityKey {
	return EntityKey{Type: e.Type, Name: e.Name}
}

// EntityKey identifies an entity within one import run. Two candidates
// with the same key refer to the same stored document regardless of what
// Params they were first seen with.
type EntityKey struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// RelationTuple represents one edge to persist between two already-merged
// entities. Entity1 and Entity2 are document ids in the target store,
// SrcType and DstType the canonical type names used to resolve the
// relation type document.
//
// Tuples are deduplicated over all fields and ordered by
// (Name, Entity1, Entity2) before merging so runs are deterministic.
type RelationTuple struct {
	Name    string `json:"name"`
	SrcType string `json:"srcType"`
	DstType string `json:"dstType"`
	Entity1 string `json:"entity1"`
	Entity2 string `json:"entity2"`
}
