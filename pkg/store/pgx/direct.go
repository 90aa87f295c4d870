package pgx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"folio/internal/util"
	"folio/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// DirectDBStore implements store.DirectStore on PostgreSQL. Every
// collection is one table of shape (id text primary key, doc jsonb);
// containment finds use the @> operator so they match the same documents
// a field-equality query would.
//
// Collection names are taken from the closed table in pkg/store, never
// from caller input.
type DirectDBStore struct {
	conn pgxIConn
}

func NewDirectDBStoreWithConnection(conn pgxIConn) *DirectDBStore {
	return &DirectDBStore{conn: conn}
}

func (s *DirectDBStore) Ping(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "select 1")
	return err
}

func (s *DirectDBStore) findOne(ctx context.Context, collection string, query store.Doc) (store.StoredDoc, bool, error) {
	raw, err := marshalDoc(query)
	if err != nil {
		return store.StoredDoc{}, false, err
	}

	var (
		id     string
		docRaw []byte
	)
	sql := fmt.Sprintf("SELECT id, doc FROM %s WHERE doc @> $1::jsonb LIMIT 1", collection)
	err = s.conn.QueryRow(ctx, sql, raw).Scan(&id, &docRaw)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return store.StoredDoc{}, false, nil
		}
		return store.StoredDoc{}, false, fmt.Errorf("failed to find in %s: %w", collection, err)
	}

	doc := store.Doc{}
	if err := json.Unmarshal(docRaw, &doc); err != nil {
		return store.StoredDoc{}, false, fmt.Errorf("failed to decode %s document %s: %w", collection, id, err)
	}
	return store.StoredDoc{ID: id, Doc: doc}, true, nil
}

func (s *DirectDBStore) list(ctx context.Context, collection string, query store.Doc) ([]store.StoredDoc, error) {
	sql := fmt.Sprintf("SELECT id, doc FROM %s", collection)
	args := []any{}
	if len(query) > 0 {
		raw, err := marshalDoc(query)
		if err != nil {
			return nil, err
		}
		sql += " WHERE doc @> $1::jsonb"
		args = append(args, raw)
	}

	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []store.StoredDoc
	for rows.Next() {
		var (
			id     string
			docRaw []byte
		)
		if err := rows.Scan(&id, &docRaw); err != nil {
			return nil, err
		}
		doc := store.Doc{}
		if err := json.Unmarshal(docRaw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s document %s: %w", collection, id, err)
		}
		docs = append(docs, store.StoredDoc{ID: id, Doc: doc})
	}
	return docs, rows.Err()
}

func (s *DirectDBStore) insertOne(ctx context.Context, collection string, doc store.Doc) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}

	raw, err := marshalDoc(doc)
	if err != nil {
		return "", err
	}

	sql := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2::jsonb)", collection)
	if _, err := s.conn.Exec(ctx, sql, id, raw); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return id, nil
}

// marshalDoc serializes a document for a jsonb column. String values are
// sanitized first: Postgres rejects NUL bytes and invalid UTF-8 inside
// jsonb.
func marshalDoc(doc store.Doc) ([]byte, error) {
	return json.Marshal(sanitizeValue(map[string]any(doc)))
}

func sanitizeValue(value any) any {
	switch v := value.(type) {
	case string:
		return util.SanitizePostgresText(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[util.SanitizePostgresText(key)] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = sanitizeValue(inner)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = util.SanitizePostgresText(inner)
		}
		return out
	default:
		return v
	}
}

func docString(doc store.Doc, key string) string {
	value, _ := doc[key].(string)
	return value
}
