package store

// DefaultCollection holds entities whose type has no collection of its own.
const DefaultCollection = "entities"

// System collections outside the per-type families.
const (
	TypesCollection         = "types"
	UsersCollection         = "users"
	RelationTypesCollection = "relationtypes"
	RelationsCollection     = "relations"
	AuditsCollection        = "audits"
)

// collections maps canonical type names to their backing collection. The
// table is closed; canonical names missing here land in DefaultCollection.
var collections = map[string]string{
	"persons":            "persons",
	"places":             "places",
	"institutions":       "institutions",
	"event":              "events",
	"appellations":       "appellations",
	"attachments":        "attachments",
	"groups":             "groups",
	"sources":            "sources",
	"visual_object":      "visual_objects",
	"work":               "works",
	"expression":         "expressions",
	"manifestation":      "manifestations",
	"item":               "items",
	"page":               "pages",
	"physical_object":    "physical_objects",
	"abstract_character": "abstract_characters",
	"hypothesis":         "hypotheses",
	"relationship":       "relationships",
}

// CollectionFor returns the collection backing a canonical type name.
func CollectionFor(typeName string) string {
	if collection, ok := collections[typeName]; ok {
		return collection
	}
	return DefaultCollection
}

// HasCollection reports whether the type has a collection of its own
// rather than sharing DefaultCollection.
func HasCollection(typeName string) bool {
	_, ok := collections[typeName]
	return ok
}
