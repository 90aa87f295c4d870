package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"folio/internal/config"
	"folio/pkg/common"
	"folio/pkg/keylock"
	"folio/pkg/logger"
	"folio/pkg/store"

	"golang.org/x/sync/errgroup"
)

const personsType = "persons"

// nameFields maps lowered display type names onto the document field the
// entity name is stored under. Everything else uses description.
var nameFields = map[string]string{
	"group":       "name",
	"appellation": "name",
	"source":      "title",
	"attachment":  "label",
	"event":       "title",
}

type relationTypeKey struct {
	name    string
	srcType string
	dstType string
}

type relationKey struct {
	entity1      string
	entity2      string
	relationType string
}

// Merger writes entities and relations into the document store with
// find-or-create semantics, so running the same dataset twice creates
// nothing new. Prime must complete before the first merge call; the
// primed type tables are read-only afterwards, while the relation caches
// grow under the mutex as merges proceed.
type Merger struct {
	store     store.DirectStore
	userID    string
	namespace string
	locks     *keylock.Registry

	typesByDisplay map[string]store.TypeDoc
	typesByName    map[string]store.TypeDoc

	mu            sync.Mutex
	relationTypes map[relationTypeKey]string
	relations     map[relationKey]string
}

type MergerParams struct {
	Store store.DirectStore
	// UserID is the resolved operator account every write is attributed
	// to.
	UserID    string
	Namespace string
}

func NewMerger(params MergerParams) *Merger {
	namespace := params.Namespace
	if namespace == "" {
		namespace = config.DefaultNamespace
	}
	return &Merger{
		store:          params.Store,
		userID:         params.UserID,
		namespace:      namespace,
		locks:          keylock.New(),
		typesByDisplay: map[string]store.TypeDoc{},
		typesByName:    map[string]store.TypeDoc{},
		relationTypes:  map[relationTypeKey]string{},
		relations:      map[relationKey]string{},
	}
}

// Prime loads the type table and the existing relation types and
// relations into memory. The relation caches are what keep re-runs from
// creating duplicates, so the merger refuses to work without them.
func (m *Merger) Prime(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error { return m.loadTypes(ctx) })
	group.Go(func() error { return m.loadRelationTypes(ctx) })
	group.Go(func() error { return m.loadRelations(ctx) })

	return group.Wait()
}

func (m *Merger) loadTypes(ctx context.Context) error {
	types, err := m.store.ActiveTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load entity types: %w", err)
	}

	byDisplay := make(map[string]store.TypeDoc, len(types))
	byName := make(map[string]store.TypeDoc, len(types))
	for _, typeDoc := range types {
		byDisplay[strings.ToLower(typeDoc.DisplayName)] = typeDoc
		byName[typeDoc.Name] = typeDoc
	}

	m.typesByDisplay = byDisplay
	m.typesByName = byName
	logger.Debug("[Merge] Loaded entity types", "count", len(types))
	return nil
}

func (m *Merger) loadRelationTypes(ctx context.Context) error {
	docs, err := m.store.ListRelationTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load relation types: %w", err)
	}

	relationTypes := make(map[relationTypeKey]string, len(docs))
	for _, stored := range docs {
		srcType := docString(stored.Doc, "type")
		dstType := docString(stored.Doc, "relationType")
		if srcType == "" || dstType == "" {
			continue
		}
		key := relationTypeKey{
			name:    docString(stored.Doc, "name"),
			srcType: srcType,
			dstType: dstType,
		}
		relationTypes[key] = stored.ID
	}

	m.mu.Lock()
	m.relationTypes = relationTypes
	m.mu.Unlock()
	logger.Debug("[Merge] Loaded relation types", "count", len(relationTypes))
	return nil
}

func (m *Merger) loadRelations(ctx context.Context) error {
	docs, err := m.store.ListRelations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load relations: %w", err)
	}

	relations := make(map[relationKey]string, len(docs))
	for _, stored := range docs {
		key := relationKey{
			entity1:      docString(stored.Doc, "entity1"),
			entity2:      docString(stored.Doc, "entity2"),
			relationType: docString(stored.Doc, "relationType"),
		}
		if key.entity1 == "" || key.entity2 == "" || key.relationType == "" {
			continue
		}
		relations[key] = stored.ID
	}

	m.mu.Lock()
	m.relations = relations
	m.mu.Unlock()
	logger.Debug("[Merge] Loaded relations", "count", len(relations))
	return nil
}

// TypeNames maps lowered display type names onto canonical store type
// names, as primed from the types collection.
func (m *Merger) TypeNames() map[string]string {
	names := make(map[string]string, len(m.typesByDisplay))
	for display, typeDoc := range m.typesByDisplay {
		names[display] = typeDoc.Name
	}
	return names
}

// MergeEntity finds or creates one entity and returns its id. A false
// second return without an error means the display type is unknown and
// the entity was skipped.
//
// Person entities matching a registered account name short-circuit to
// the account id, so operators never duplicate themselves as entities.
func (m *Merger) MergeEntity(ctx context.Context, displayType, name string, params map[string]string) (string, bool, error) {
	typeDoc, ok := m.typesByDisplay[strings.ToLower(displayType)]
	if !ok {
		logger.Debug("[Merge] Unknown entity type, skipping", "type", displayType, "name", name)
		return "", false, nil
	}
	canonical := typeDoc.Name

	if canonical == personsType {
		user, found, err := m.store.FindUser(ctx, name)
		if err != nil {
			return "", false, fmt.Errorf("failed to look up account for person %s: %w", name, err)
		}
		if found {
			return user.ID, true, nil
		}
	}

	fieldName := nameFieldFor(displayType)
	query := make(store.Doc, len(params)+1)
	for key, value := range params {
		query[key] = value
	}
	query[fieldName] = name

	existing, found, err := m.store.FindEntity(ctx, store.FindEntityParams{Type: canonical, Query: query})
	if err != nil {
		return "", false, fmt.Errorf("failed to find entity %s: %w", name, err)
	}
	if found {
		if !docHasUser(existing.Doc, m.userID) {
			err := m.store.AssociateEntityUser(ctx, store.AssociateEntityUserParams{
				Type:   canonical,
				ID:     existing.ID,
				UserID: m.userID,
			})
			if err != nil {
				return "", false, fmt.Errorf("failed to associate user with entity %s: %w", existing.ID, err)
			}
			m.audit(ctx, existing.ID, "associatedUsers", m.userID, "update")
		}
		return existing.ID, true, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	doc := store.Doc{
		"active":                true,
		"creationUser":          m.userID,
		"updateUser":            m.userID,
		"creationTimestamp":     now,
		"latestUpdateTimestamp": now,
		"namespace":             m.namespace,
		"__v":                   0,
		"associatedUsers":       []string{m.userID},
	}
	for key, value := range query {
		doc[key] = value
	}

	if canonical == personsType {
		doc["measures"] = []any{}
	} else if canonical == "institutions" || canonical == "events" || !store.HasCollection(canonical) {
		doc["relations"] = []any{}
	}

	doc["type"] = typeDoc.ID

	id, err := m.store.InsertEntity(ctx, store.InsertEntityParams{Type: canonical, Doc: doc})
	if err != nil {
		return "", false, fmt.Errorf("failed to insert entity %s: %w", name, err)
	}
	m.audit(ctx, id, fieldName, name, "post")
	return id, true, nil
}

// MergeRelation finds or creates the relation type for the tuple and
// then the relation itself. A false second return without an error means
// one of the tuple's type names is not registered in the store.
func (m *Merger) MergeRelation(ctx context.Context, tuple common.RelationTuple) (string, bool, error) {
	srcType, ok := m.typesByName[tuple.SrcType]
	if !ok {
		logger.Debug("[Merge] Unknown source type for relation, skipping", "relation", tuple.Name, "type", tuple.SrcType)
		return "", false, nil
	}
	dstType, ok := m.typesByName[tuple.DstType]
	if !ok {
		logger.Debug("[Merge] Unknown target type for relation, skipping", "relation", tuple.Name, "type", tuple.DstType)
		return "", false, nil
	}

	relationTypeID, err := m.ensureRelationType(ctx, tuple.Name, srcType.ID, dstType.ID)
	if err != nil {
		return "", false, err
	}

	key := relationKey{entity1: tuple.Entity1, entity2: tuple.Entity2, relationType: relationTypeID}
	m.mu.Lock()
	id, cached := m.relations[key]
	m.mu.Unlock()
	if cached {
		return id, true, nil
	}

	doc := store.Doc{
		"active":       true,
		"entity1":      tuple.Entity1,
		"relationType": relationTypeID,
		"entity2":      tuple.Entity2,
		"__v":          0,
	}
	id, err = m.store.InsertRelation(ctx, doc)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert relation %s: %w", tuple.Name, err)
	}
	m.audit(ctx, id, "active", true, "post")

	m.mu.Lock()
	m.relations[key] = id
	m.mu.Unlock()

	return id, true, nil
}

// ensureRelationType returns the id of the (name, src, dst) relation
// type, creating it if the cache has no entry. The per-key lock makes
// sure concurrent merges of the same relation name create it exactly
// once; the cache fill happens inside the lock so waiting goroutines see
// the fresh id.
func (m *Merger) ensureRelationType(ctx context.Context, name, srcTypeID, dstTypeID string) (string, error) {
	key := relationTypeKey{name: name, srcType: srcTypeID, dstType: dstTypeID}
	lockKey := fmt.Sprintf("%s|%s|%s", name, srcTypeID, dstTypeID)

	var relationTypeID string
	err := m.locks.WithLock(ctx, lockKey, func() error {
		m.mu.Lock()
		id, ok := m.relationTypes[key]
		m.mu.Unlock()
		if ok {
			relationTypeID = id
			return nil
		}

		doc := store.Doc{
			"active":       true,
			"name":         name,
			"type":         srcTypeID,
			"relationType": dstTypeID,
			"creationUser": m.userID,
			"updateUser":   m.userID,
			"namespace":    m.namespace,
			"__v":          0,
		}
		id, err := m.store.InsertRelationType(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to insert relation type %s: %w", name, err)
		}
		m.audit(ctx, id, "name", name, "post")

		m.mu.Lock()
		m.relationTypes[key] = id
		m.mu.Unlock()

		relationTypeID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return relationTypeID, nil
}

// audit records one write in the audits collection. Audit failures are
// logged and swallowed; they never fail the merge that caused them.
func (m *Merger) audit(ctx context.Context, referenceID, path string, value any, opType string) {
	doc := store.Doc{
		"referenceId": referenceID,
		"user":        m.userID,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"path":        path,
		"value":       value,
		"type":        opType,
		"__v":         0,
	}
	if err := m.store.InsertAudit(ctx, doc); err != nil {
		logger.Warn("[Merge] Failed to write audit entry", "referenceId", referenceID, "path", path, "error", err)
	}
}

func nameFieldFor(displayType string) string {
	if field, ok := nameFields[strings.ToLower(displayType)]; ok {
		return field
	}
	return "description"
}

func docHasUser(doc store.Doc, userID string) bool {
	users, ok := doc["associatedUsers"].([]any)
	if !ok {
		return false
	}
	for _, user := range users {
		if id, ok := user.(string); ok && id == userID {
			return true
		}
	}
	return false
}

func docString(doc store.Doc, key string) string {
	value, ok := doc[key].(string)
	if !ok {
		return ""
	}
	return value
}
