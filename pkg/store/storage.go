package store

import "context"

// Doc is one document as stored, field name to value. Values survive a
// JSON round trip, so numbers come back as float64 and nested fields as
// map[string]any.
type Doc map[string]any

// StoredDoc pairs a document with the id it is stored under.
type StoredDoc struct {
	ID  string
	Doc Doc
}

// TypeDoc is one entry of the types collection. Name is the canonical
// type name (e.g. "persons") that entity documents reference and
// relation types are resolved against; DisplayName is the spelling the
// import rules use.
type TypeDoc struct {
	ID          string
	Name        string
	DisplayName string
}

// User is one operator account from the users collection.
type User struct {
	ID       string
	Username string
}

type FindEntityParams struct {
	Type  string
	Query Doc
}

type InsertEntityParams struct {
	Type string
	Doc  Doc
}

type AssociateEntityUserParams struct {
	Type   string
	ID     string
	UserID string
}

// DirectStore defines the interface for the graph-shaped document store
// the importer merges into. It exposes only the find/insert/update
// operations the merge engine needs; schema and indexing belong to the
// store itself.
//
// Entity operations address a collection through the canonical type name.
// Find performs a containment match: every field of the query document
// must be present with an equal value in the stored document.
type DirectStore interface {
	Ping(ctx context.Context) error

	FindUser(ctx context.Context, username string) (User, bool, error)

	// ActiveTypes returns every type document with active: true.
	ActiveTypes(ctx context.Context) ([]TypeDoc, error)

	FindEntity(ctx context.Context, params FindEntityParams) (StoredDoc, bool, error)
	InsertEntity(ctx context.Context, params InsertEntityParams) (string, error)
	// AssociateEntityUser set-adds a user to the entity's associatedUsers
	// and bumps updateUser and latestUpdateTimestamp.
	AssociateEntityUser(ctx context.Context, params AssociateEntityUserParams) error

	ListRelationTypes(ctx context.Context) ([]StoredDoc, error)
	InsertRelationType(ctx context.Context, doc Doc) (string, error)

	ListRelations(ctx context.Context) ([]StoredDoc, error)
	InsertRelation(ctx context.Context, doc Doc) (string, error)

	InsertAudit(ctx context.Context, doc Doc) error
}
