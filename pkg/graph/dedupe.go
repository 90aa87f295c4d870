package graph

import (
	"sort"

	"folio/internal/config"
	"folio/pkg/common"
)

// CollectMappedEntities gathers the unique entities of every statically
// mapped column. Cell values are split and normalized, keyed by
// (type, name), and the first row a value appears in supplies the
// configured sibling properties as params.
func CollectMappedEntities(rows []common.Row, recipe *config.Recipe, splitter *Splitter) map[common.EntityKey]common.Entity {
	entities := make(map[common.EntityKey]common.Entity)

	columns := make([]string, 0, len(recipe.Mapping))
	for column := range recipe.Mapping {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	for _, column := range columns {
		entityType := recipe.Mapping[column]
		delimiter, _ := recipe.Delimiter(column)

		for _, row := range rows {
			raw, ok := row[column]
			if !ok || raw == nil {
				continue
			}

			for _, piece := range splitter.Split(raw, delimiter, false) {
				name, ok := Normalize(piece)
				if !ok {
					continue
				}

				key := common.EntityKey{Type: entityType, Name: name}
				if _, exists := entities[key]; exists {
					continue
				}
				entities[key] = common.Entity{
					Type:   entityType,
					Name:   name,
					Params: collectParams(row, recipe.Properties[column]),
				}
			}
		}
	}

	return entities
}

// collectParams normalizes the sibling property cells of one row into the
// configured param fields. Absent and empty cells contribute nothing.
func collectParams(row common.Row, properties map[string]string) map[string]string {
	params := make(map[string]string, len(properties))
	for sourceColumn, fieldName := range properties {
		raw, ok := row[sourceColumn]
		if !ok || raw == nil {
			continue
		}
		value, ok := Normalize(raw)
		if !ok {
			continue
		}
		params[fieldName] = value
	}
	return params
}

// CollectDynamicEntities scans the relation endpoint columns that carry no
// static type and collects entities whose type comes from the value's
// identifier prefix. Params stay empty.
func CollectDynamicEntities(rows []common.Row, recipe *config.Recipe, splitter *Splitter, resolver *TypeResolver) map[common.EntityKey]common.Entity {
	entities := make(map[common.EntityKey]common.Entity)

	columns := dynamicRelationColumns(recipe)
	if len(columns) == 0 {
		return entities
	}

	for _, row := range rows {
		for _, column := range columns {
			raw, ok := row[column]
			if !ok || raw == nil {
				continue
			}

			delimiter, _ := recipe.Delimiter(column)
			for _, piece := range splitter.Split(raw, delimiter, false) {
				name, ok := Normalize(piece)
				if !ok {
					continue
				}

				entityType, ok := resolver.Resolve(column, name)
				if !ok {
					continue
				}

				key := common.EntityKey{Type: entityType, Name: name}
				if _, exists := entities[key]; !exists {
					entities[key] = common.Entity{
						Type:   entityType,
						Name:   name,
						Params: map[string]string{},
					}
				}
			}
		}
	}

	return entities
}

// dynamicRelationColumns returns the relation endpoint columns without a
// static mapping, sorted for a stable scan order. The dynamically named
// relation's endpoint columns count as endpoints too.
func dynamicRelationColumns(recipe *config.Recipe) []string {
	seen := make(map[string]struct{})
	for _, relation := range recipe.Relations {
		seen[relation.Entity1] = struct{}{}
		seen[relation.Entity2] = struct{}{}
	}
	if recipe.DynamicRelation.Entity1 != "" {
		seen[recipe.DynamicRelation.Entity1] = struct{}{}
	}
	if recipe.DynamicRelation.Entity2 != "" {
		seen[recipe.DynamicRelation.Entity2] = struct{}{}
	}

	columns := make([]string, 0, len(seen))
	for column := range seen {
		if _, mapped := recipe.Mapping[column]; mapped {
			continue
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// CollectEntities merges the static and dynamic passes into one entity
// set. On key collisions the static record wins, keeping its params.
func CollectEntities(rows []common.Row, recipe *config.Recipe, splitter *Splitter, resolver *TypeResolver) map[common.EntityKey]common.Entity {
	merged := CollectDynamicEntities(rows, recipe, splitter, resolver)
	for key, entity := range CollectMappedEntities(rows, recipe, splitter) {
		merged[key] = entity
	}
	return merged
}
