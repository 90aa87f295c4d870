package graph

import (
	"reflect"
	"testing"

	"folio/internal/config"
	"folio/pkg/common"
	"folio/pkg/store"
)

func relationsRecipe() *config.Recipe {
	recipe := &config.Recipe{
		Mapping: map[string]string{
			"PERSON": "person",
		},
		Relations: []config.RelationConfig{
			{Name: "IS_AUTHOR_OF", Entity1: "PERSON", Entity2: "AUTHOR_WORK_ID"},
		},
		DelimitedFields: map[string]string{
			"PERSON":         ";",
			"AUTHOR_WORK_ID": ";",
		},
	}
	recipe.ApplyDefaults()
	return recipe
}

func testRelationBuilder(recipe *config.Recipe, cache store.EntityCache) *RelationBuilder {
	return NewRelationBuilder(RelationBuilderParams{
		Recipe:      recipe,
		Splitter:    NewSplitter(recipe.PrefixStrings()),
		Resolver:    NewTypeResolver(recipe),
		EntityCache: cache,
		TypeNames:   map[string]string{"person": "persons", "work": "works"},
	})
}

func TestCollectRelationsCartesianProduct(t *testing.T) {
	cache := store.EntityCache{
		"person": {"Ada": "id_ada", "Mary": "id_mary"},
		"work":   {"w_1": "id_w1", "w_2": "id_w2"},
	}
	builder := testRelationBuilder(relationsRecipe(), cache)

	rows := []common.Row{
		{"PERSON": "Ada; Mary", "AUTHOR_WORK_ID": "w_1;w_2"},
	}

	tuples := builder.Collect(rows)
	expected := []common.RelationTuple{
		{Name: "IS_AUTHOR_OF", SrcType: "persons", DstType: "works", Entity1: "id_ada", Entity2: "id_w1"},
		{Name: "IS_AUTHOR_OF", SrcType: "persons", DstType: "works", Entity1: "id_ada", Entity2: "id_w2"},
		{Name: "IS_AUTHOR_OF", SrcType: "persons", DstType: "works", Entity1: "id_mary", Entity2: "id_w1"},
		{Name: "IS_AUTHOR_OF", SrcType: "persons", DstType: "works", Entity1: "id_mary", Entity2: "id_w2"},
	}
	if !reflect.DeepEqual(tuples, expected) {
		t.Fatalf("expected %v, got %v", expected, tuples)
	}
}

func TestCollectRelationsSkipsUncachedEntities(t *testing.T) {
	cache := store.EntityCache{
		"person": {"Ada": "id_ada"},
	}
	builder := testRelationBuilder(relationsRecipe(), cache)

	rows := []common.Row{
		{"PERSON": "Ada", "AUTHOR_WORK_ID": "w_9"},
	}

	if tuples := builder.Collect(rows); len(tuples) != 0 {
		t.Fatalf("expected no tuples for uncached entity, got %v", tuples)
	}
}

func TestCollectRelationsSkipsUnresolvableTypes(t *testing.T) {
	cache := store.EntityCache{
		"person": {"Ada": "id_ada"},
	}
	builder := testRelationBuilder(relationsRecipe(), cache)

	rows := []common.Row{
		{"PERSON": "Ada", "AUTHOR_WORK_ID": "zzz_9"},
	}

	if tuples := builder.Collect(rows); len(tuples) != 0 {
		t.Fatalf("expected no tuples for unresolvable type, got %v", tuples)
	}
}

func TestCollectRelationsDeduplicates(t *testing.T) {
	cache := store.EntityCache{
		"person": {"Ada": "id_ada"},
		"work":   {"w_1": "id_w1"},
	}
	builder := testRelationBuilder(relationsRecipe(), cache)

	rows := []common.Row{
		{"PERSON": "Ada", "AUTHOR_WORK_ID": "w_1"},
		{"PERSON": "Ada", "AUTHOR_WORK_ID": "w_1"},
	}

	tuples := builder.Collect(rows)
	if len(tuples) != 1 {
		t.Fatalf("expected 1 tuple after dedupe, got %d", len(tuples))
	}
}

func TestCollectDynamicNamedRelations(t *testing.T) {
	cache := store.EntityCache{
		"person": {"p_1": "id_p1", "p_2": "id_p2"},
	}
	builder := testRelationBuilder(relationsRecipe(), cache)

	rows := []common.Row{
		{"PERSON_CHARACTER_ID_A": "p_1", "RELATIONSHIP": "SIBLING_OF", "PERSON_CHARACTER_ID_B": "p_2"},
		{"PERSON_CHARACTER_ID_A": "p_1", "PERSON_CHARACTER_ID_B": "p_2"},
		{"PERSON_CHARACTER_ID_A": "p_1", "RELATIONSHIP": "   ", "PERSON_CHARACTER_ID_B": "p_2"},
	}

	tuples := builder.Collect(rows)
	expected := []common.RelationTuple{
		{Name: "SIBLING_OF", SrcType: "persons", DstType: "persons", Entity1: "id_p1", Entity2: "id_p2"},
	}
	if !reflect.DeepEqual(tuples, expected) {
		t.Fatalf("expected %v, got %v", expected, tuples)
	}
}

func TestCollectDynamicRelationsNeedAllColumns(t *testing.T) {
	cache := store.EntityCache{
		"person": {"p_1": "id_p1", "p_2": "id_p2"},
	}
	builder := testRelationBuilder(relationsRecipe(), cache)

	// The name column never appears in the sheet, so the dynamic pass
	// is skipped entirely.
	rows := []common.Row{
		{"PERSON_CHARACTER_ID_A": "p_1", "PERSON_CHARACTER_ID_B": "p_2"},
	}

	if tuples := builder.Collect(rows); len(tuples) != 0 {
		t.Fatalf("expected no tuples without the name column, got %v", tuples)
	}
}

func TestCollectRelationsSortOrder(t *testing.T) {
	cache := store.EntityCache{
		"person": {"p_1": "id_a", "p_2": "id_b"},
		"work":   {"w_1": "id_w1"},
	}
	recipe := relationsRecipe()
	recipe.Relations = []config.RelationConfig{
		{Name: "Z_REL", Entity1: "PERSON_CHARACTER_ID_A", Entity2: "AUTHOR_WORK_ID"},
		{Name: "A_REL", Entity1: "PERSON_CHARACTER_ID_A", Entity2: "AUTHOR_WORK_ID"},
	}
	builder := testRelationBuilder(recipe, cache)

	rows := []common.Row{
		{"PERSON_CHARACTER_ID_A": "p_2", "AUTHOR_WORK_ID": "w_1"},
		{"PERSON_CHARACTER_ID_A": "p_1", "AUTHOR_WORK_ID": "w_1"},
	}

	tuples := builder.Collect(rows)
	expected := []common.RelationTuple{
		{Name: "A_REL", SrcType: "persons", DstType: "works", Entity1: "id_a", Entity2: "id_w1"},
		{Name: "A_REL", SrcType: "persons", DstType: "works", Entity1: "id_b", Entity2: "id_w1"},
		{Name: "Z_REL", SrcType: "persons", DstType: "works", Entity1: "id_a", Entity2: "id_w1"},
		{Name: "Z_REL", SrcType: "persons", DstType: "works", Entity1: "id_b", Entity2: "id_w1"},
	}
	if !reflect.DeepEqual(tuples, expected) {
		t.Fatalf("expected %v, got %v", expected, tuples)
	}
}
