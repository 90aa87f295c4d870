package graph

import (
	"sort"
	"strings"

	"folio/internal/config"
	"folio/pkg/common"
	"folio/pkg/logger"
	"folio/pkg/store"
)

// RelationBuilder resolves the configured and dynamically named relations
// of a dataset into concrete entity-id pairs. Only pairs whose entities
// reached the cache during the entity phase are buildable; everything
// else is skipped.
type RelationBuilder struct {
	recipe      *config.Recipe
	splitter    *Splitter
	resolver    *TypeResolver
	entityCache store.EntityCache
	typeNames   map[string]string
}

type RelationBuilderParams struct {
	Recipe      *config.Recipe
	Splitter    *Splitter
	Resolver    *TypeResolver
	EntityCache store.EntityCache
	// TypeNames maps lowered display type names onto canonical store
	// type names.
	TypeNames map[string]string
}

func NewRelationBuilder(params RelationBuilderParams) *RelationBuilder {
	return &RelationBuilder{
		recipe:      params.Recipe,
		splitter:    params.Splitter,
		resolver:    params.Resolver,
		entityCache: params.EntityCache,
		typeNames:   params.TypeNames,
	}
}

// relationEndpoint is one resolved side of a relation pair.
type relationEndpoint struct {
	id       string
	typeName string
}

// Collect runs the static and dynamic passes over the rows, deduplicates
// by full tuple identity and returns the tuples in a stable
// (name, entity1, entity2) order.
func (b *RelationBuilder) Collect(rows []common.Row) []common.RelationTuple {
	tuples := b.collectStatic(rows)
	tuples = append(tuples, b.collectDynamic(rows)...)

	seen := make(map[common.RelationTuple]struct{}, len(tuples))
	unique := make([]common.RelationTuple, 0, len(tuples))
	for _, tuple := range tuples {
		if _, ok := seen[tuple]; ok {
			continue
		}
		seen[tuple] = struct{}{}
		unique = append(unique, tuple)
	}

	sort.Slice(unique, func(i, j int) bool {
		left, right := unique[i], unique[j]
		if left.Name != right.Name {
			return left.Name < right.Name
		}
		if left.Entity1 != right.Entity1 {
			return left.Entity1 < right.Entity1
		}
		if left.Entity2 != right.Entity2 {
			return left.Entity2 < right.Entity2
		}
		if left.SrcType != right.SrcType {
			return left.SrcType < right.SrcType
		}
		return left.DstType < right.DstType
	})

	return unique
}

func (b *RelationBuilder) collectStatic(rows []common.Row) []common.RelationTuple {
	var tuples []common.RelationTuple
	for _, row := range rows {
		for _, relation := range b.recipe.Relations {
			tuples = append(tuples, b.rowRelations(row, relation.Name, relation.Entity1, relation.Entity2, false)...)
		}
	}
	return tuples
}

// collectDynamic handles relations whose name comes from a per-row cell
// instead of static configuration. All three designated columns must be
// present in the sheet, otherwise the pass is skipped entirely.
func (b *RelationBuilder) collectDynamic(rows []common.Row) []common.RelationTuple {
	dynamic := b.recipe.DynamicRelation
	if dynamic.Entity1 == "" || dynamic.Name == "" || dynamic.Entity2 == "" {
		return nil
	}
	if !columnsInSheet(rows, dynamic.Entity1, dynamic.Name, dynamic.Entity2) {
		logger.Debug("[Relations] Dynamic relation columns not present in sheet, skipping")
		return nil
	}

	var tuples []common.RelationTuple
	for _, row := range rows {
		if !cellPresent(row, dynamic.Entity1) || !cellPresent(row, dynamic.Name) || !cellPresent(row, dynamic.Entity2) {
			continue
		}

		name, ok := Normalize(row[dynamic.Name])
		if !ok {
			continue
		}

		tuples = append(tuples, b.rowRelations(row, name, dynamic.Entity1, dynamic.Entity2, true)...)
	}
	return tuples
}

// rowRelations forms the cartesian product of the two endpoint columns of
// one row. Both cells must be present for any pair to form.
func (b *RelationBuilder) rowRelations(row common.Row, name, column1, column2 string, warnUnresolved bool) []common.RelationTuple {
	if !cellPresent(row, column1) || !cellPresent(row, column2) {
		return nil
	}

	side1 := b.resolveSide(row, column1, warnUnresolved)
	side2 := b.resolveSide(row, column2, warnUnresolved)

	var tuples []common.RelationTuple
	for _, first := range side1 {
		for _, second := range side2 {
			tuples = append(tuples, common.RelationTuple{
				Name:    name,
				SrcType: first.typeName,
				DstType: second.typeName,
				Entity1: first.id,
				Entity2: second.id,
			})
		}
	}
	return tuples
}

// resolveSide splits and normalizes one endpoint cell and resolves every
// atomic value into a cached entity id plus its canonical type. Values
// without a resolvable type or a cached id drop out.
func (b *RelationBuilder) resolveSide(row common.Row, column string, warnUnresolved bool) []relationEndpoint {
	raw, ok := row[column]
	if !ok || raw == nil {
		return nil
	}

	delimiter, _ := b.recipe.Delimiter(column)

	var endpoints []relationEndpoint
	for _, piece := range b.splitter.Split(raw, delimiter, false) {
		value, ok := Normalize(piece)
		if !ok {
			continue
		}

		display, ok := b.resolver.Resolve(column, value)
		if !ok {
			if warnUnresolved {
				logger.Warn("[Relations] Could not determine entity type for relation endpoint, skipping", "column", column, "value", value)
			}
			continue
		}

		id, ok := b.entityCache.Get(display, value)
		if !ok {
			continue
		}

		typeName, ok := b.canonicalType(display)
		if !ok {
			continue
		}

		endpoints = append(endpoints, relationEndpoint{id: id, typeName: typeName})
	}
	return endpoints
}

func (b *RelationBuilder) canonicalType(display string) (string, bool) {
	name, ok := b.typeNames[strings.ToLower(display)]
	return name, ok
}

func cellPresent(row common.Row, column string) bool {
	raw, ok := row[column]
	return ok && raw != nil
}

func columnsInSheet(rows []common.Row, columns ...string) bool {
	for _, column := range columns {
		found := false
		for _, row := range rows {
			if _, ok := row[column]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
