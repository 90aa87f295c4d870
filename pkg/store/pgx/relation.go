package pgx

import (
	"context"

	"folio/pkg/store"
)

func (s *DirectDBStore) ListRelationTypes(ctx context.Context) ([]store.StoredDoc, error) {
	return s.list(ctx, store.RelationTypesCollection, nil)
}

func (s *DirectDBStore) InsertRelationType(ctx context.Context, doc store.Doc) (string, error) {
	return s.insertOne(ctx, store.RelationTypesCollection, doc)
}

func (s *DirectDBStore) ListRelations(ctx context.Context) ([]store.StoredDoc, error) {
	return s.list(ctx, store.RelationsCollection, nil)
}

func (s *DirectDBStore) InsertRelation(ctx context.Context, doc store.Doc) (string, error) {
	return s.insertOne(ctx, store.RelationsCollection, doc)
}

func (s *DirectDBStore) InsertAudit(ctx context.Context, doc store.Doc) error {
	_, err := s.insertOne(ctx, store.AuditsCollection, doc)
	return err
}
