package pgx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"folio/pkg/store"
)

func (s *DirectDBStore) FindUser(ctx context.Context, username string) (store.User, bool, error) {
	found, ok, err := s.findOne(ctx, store.UsersCollection, store.Doc{"username": username})
	if err != nil || !ok {
		return store.User{}, false, err
	}
	return store.User{ID: found.ID, Username: docString(found.Doc, "username")}, true, nil
}

func (s *DirectDBStore) ActiveTypes(ctx context.Context) ([]store.TypeDoc, error) {
	docs, err := s.list(ctx, store.TypesCollection, store.Doc{"active": true})
	if err != nil {
		return nil, err
	}

	types := make([]store.TypeDoc, 0, len(docs))
	for _, entry := range docs {
		name := docString(entry.Doc, "name")
		displayName := docString(entry.Doc, "displayName")
		if name == "" || displayName == "" {
			continue
		}
		types = append(types, store.TypeDoc{
			ID:          entry.ID,
			Name:        name,
			DisplayName: displayName,
		})
	}
	return types, nil
}

func (s *DirectDBStore) FindEntity(ctx context.Context, params store.FindEntityParams) (store.StoredDoc, bool, error) {
	return s.findOne(ctx, store.CollectionFor(params.Type), params.Query)
}

func (s *DirectDBStore) InsertEntity(ctx context.Context, params store.InsertEntityParams) (string, error) {
	return s.insertOne(ctx, store.CollectionFor(params.Type), params.Doc)
}

// AssociateEntityUser set-adds the user to the entity's associatedUsers
// and bumps the update stamps. The read-modify-write runs in a
// transaction with the row locked, so concurrent associates of the same
// entity cannot lose each other's users.
func (s *DirectDBStore) AssociateEntityUser(ctx context.Context, params store.AssociateEntityUserParams) error {
	collection := store.CollectionFor(params.Type)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var docRaw []byte
	sql := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1 FOR UPDATE", collection)
	if err := tx.QueryRow(ctx, sql, params.ID).Scan(&docRaw); err != nil {
		return fmt.Errorf("failed to load %s document %s: %w", collection, params.ID, err)
	}

	doc := store.Doc{}
	if err := json.Unmarshal(docRaw, &doc); err != nil {
		return fmt.Errorf("failed to decode %s document %s: %w", collection, params.ID, err)
	}

	associated, _ := doc["associatedUsers"].([]any)
	for _, entry := range associated {
		if entry == params.UserID {
			return tx.Commit(ctx)
		}
	}

	doc["associatedUsers"] = append(associated, params.UserID)
	doc["updateUser"] = params.UserID
	doc["latestUpdateTimestamp"] = time.Now().UTC().Format(time.RFC3339)

	raw, err := marshalDoc(doc)
	if err != nil {
		return err
	}
	update := fmt.Sprintf("UPDATE %s SET doc = $2::jsonb WHERE id = $1", collection)
	if _, err := tx.Exec(ctx, update, params.ID, raw); err != nil {
		return fmt.Errorf("failed to update %s document %s: %w", collection, params.ID, err)
	}

	return tx.Commit(ctx)
}
