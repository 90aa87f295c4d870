package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

// Recipe describes how one workbook family maps onto the document store:
// which columns carry entities, which sibling columns become document
// params, which relations to build, and how delimited cells are split.
type Recipe struct {
	Database        DatabaseConfig               `yaml:"database"`
	Mapping         map[string]string            `yaml:"mapping" validate:"required,min=1"`
	Properties      map[string]map[string]string `yaml:"properties"`
	Relations       []RelationConfig             `yaml:"relations" validate:"dive"`
	DelimitedFields map[string]string            `yaml:"delimited_fields"`
	Prefixes        []PrefixConfig               `yaml:"prefixes" validate:"dive"`
	DynamicColumns  []string                     `yaml:"dynamic_columns"`
	DynamicSuffixes []string                     `yaml:"dynamic_suffixes"`
	DynamicRelation DynamicRelationConfig        `yaml:"dynamic_relation"`
}

type DatabaseConfig struct {
	Namespace string `yaml:"namespace"`
}

// RelationConfig names one statically configured relation. Entity1 and
// Entity2 are column headers whose values form the endpoint sets.
type RelationConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Entity1 string `yaml:"entity1" validate:"required"`
	Entity2 string `yaml:"entity2" validate:"required"`
}

// PrefixConfig binds one identifier prefix to an entity type. Order in the
// recipe matters: the first matching entry wins, so more specific prefixes
// must be listed before their shorter partners.
type PrefixConfig struct {
	Prefix string `yaml:"prefix" validate:"required"`
	Type   string `yaml:"type" validate:"required"`
}

// DynamicRelationConfig names the three columns that describe per-row
// relations: two entity-id columns and the column carrying the relation
// name itself.
type DynamicRelationConfig struct {
	Entity1 string `yaml:"entity1"`
	Name    string `yaml:"name"`
	Entity2 string `yaml:"entity2"`
}

const DefaultNamespace = "interfolia"

// DefaultPrefixes returns the built-in identifier prefix table. Longer
// prefixes come before the shorter prefixes they extend.
func DefaultPrefixes() []PrefixConfig {
	return []PrefixConfig{
		{Prefix: "PO_PAG_", Type: "physical_object"},
		{Prefix: "m_vol_", Type: "manifestation"},
		{Prefix: "inst_", Type: "institution"},
		{Prefix: "loc_", Type: "place"},
		{Prefix: "PAG_", Type: "page"},
		{Prefix: "PO_", Type: "physical_object"},
		{Prefix: "VO_", Type: "visual_object"},
		{Prefix: "ex_", Type: "expression"},
		{Prefix: "ac_", Type: "abstract_character"},
		{Prefix: "p_", Type: "person"},
		{Prefix: "w_", Type: "work"},
		{Prefix: "m_", Type: "manifestation"},
		{Prefix: "i_", Type: "item"},
		{Prefix: "e_", Type: "event"},
	}
}

// DefaultDynamicColumns returns the built-in set of columns whose values
// carry their own type through an identifier prefix.
func DefaultDynamicColumns() []string {
	return []string{
		"PERSON_CHARACTER_ID_A",
		"PERSON_CHARACTER_ID_B",
		"HYPOTHESIS_ABOUT_ID",
		"HYPOTHESIS_ABOUT_IDS",
		"MENTIONING_ID",
		"MENTIONED_ID",
		"AUTHOR_WORK_ID",
		"OTHER_SECONDARY_ROLE_ID",
		"TRANSLATOR_ID",
		"EDITOR_ID",
		"SCRIPTWRITER_ID",
		"COMPOSITOR_ID",
		"REVIEWER_ID",
		"PUBLISHER_MANIFESTATION_ID",
		"EDITOR_MANIFESTATION_ID",
		"CORRECTOR_MANIFESTATION_ID",
		"SPONSOR_MANIFESTATION_ID",
		"OWNER_OF_ITEM_ID",
		"OWNERSHIP_OF_VISUAL_ID",
		"INSCRIBER_VISUAL_ID",
		"SENDER_VISUAL_ID",
		"RECIPIENT_VISUAL_ID",
		"OWNERSHIP_OF_PHYSICAL_OBJECT_ID",
		"CREATOR_OF_PHYSICAL_OBJECT_ID",
	}
}

func DefaultDynamicSuffixes() []string {
	return []string{"_MENTIONING", "_MENTIONED_BY", "_HYPOTHESIS_OF"}
}

func DefaultDynamicRelation() DynamicRelationConfig {
	return DynamicRelationConfig{
		Entity1: "PERSON_CHARACTER_ID_A",
		Name:    "RELATIONSHIP",
		Entity2: "PERSON_CHARACTER_ID_B",
	}
}

// Load reads, parses and validates a recipe file. Omitted sections fall
// back to the built-in defaults.
func Load(path string) (*Recipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %s: %w", path, err)
	}

	recipe := &Recipe{}
	if err := yaml.Unmarshal(raw, recipe); err != nil {
		return nil, fmt.Errorf("failed to parse recipe %s: %w", path, err)
	}
	recipe.ApplyDefaults()

	if err := validator.New().Struct(recipe); err != nil {
		return nil, fmt.Errorf("invalid recipe %s: %w", path, err)
	}

	return recipe, nil
}

// ApplyDefaults fills every omitted section with its built-in value.
func (r *Recipe) ApplyDefaults() {
	if r.Database.Namespace == "" {
		r.Database.Namespace = DefaultNamespace
	}
	if len(r.Prefixes) == 0 {
		r.Prefixes = DefaultPrefixes()
	}
	if len(r.DynamicColumns) == 0 {
		r.DynamicColumns = DefaultDynamicColumns()
	}
	if len(r.DynamicSuffixes) == 0 {
		r.DynamicSuffixes = DefaultDynamicSuffixes()
	}
	if r.DynamicRelation == (DynamicRelationConfig{}) {
		r.DynamicRelation = DefaultDynamicRelation()
	}
}

// Delimiter returns the configured delimiter for a column, if any.
func (r *Recipe) Delimiter(column string) (string, bool) {
	delimiter, ok := r.DelimitedFields[column]
	return delimiter, ok
}

// PrefixStrings returns just the prefixes of the table, preserving order.
func (r *Recipe) PrefixStrings() []string {
	prefixes := make([]string, 0, len(r.Prefixes))
	for _, entry := range r.Prefixes {
		prefixes = append(prefixes, entry.Prefix)
	}
	return prefixes
}
