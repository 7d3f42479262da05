// Package docstore provides PostgreSQL access for profile documents. Records
// are stored as full JSON snapshots; a few scalar columns are maintained
// alongside the snapshot for indexed lookups.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mawps/profile-service/internal/types"
)

// Store wraps a PostgreSQL connection pool
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the document tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS profile_documents (
			pk          TEXT NOT NULL,
			sk          TEXT NOT NULL,
			user_id     TEXT NOT NULL DEFAULT '',
			email       TEXT NOT NULL DEFAULT '',
			name        TEXT NOT NULL DEFAULT '',
			doc         JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (pk, sk)
		);
		CREATE TABLE IF NOT EXISTS user_documents (
			user_id     TEXT PRIMARY KEY,
			doc         JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// GetComposite retrieves the document stored under the composite key (pk, sk).
// Returns nil without error when no record exists.
func (s *Store) GetComposite(ctx context.Context, pk, sk string) (types.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM profile_documents WHERE pk = $1 AND sk = $2`,
		pk, sk,
	).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document %s/%s: %w", pk, sk, err)
	}
	return decodeDoc(raw)
}

// PutComposite stores the document under the composite key (pk, sk),
// replacing any existing snapshot. The indexed scalar columns are refreshed
// from the document itself.
func (s *Store) PutComposite(ctx context.Context, pk, sk string, doc types.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO profile_documents (pk, sk, user_id, email, name, doc)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (pk, sk) DO UPDATE SET user_id = $3, email = $4, name = $5, doc = $6, updated_at = NOW()`,
		pk, sk, types.Str(doc, "userId"), types.Str(doc, "email"), types.Str(doc, "name"), raw,
	)
	if err != nil {
		return fmt.Errorf("failed to put document %s/%s: %w", pk, sk, err)
	}
	return nil
}

// GetSimple retrieves the document stored under a plain user id. Returns nil
// without error when no record exists.
func (s *Store) GetSimple(ctx context.Context, userID string) (types.Document, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT doc FROM user_documents WHERE user_id = $1`,
		userID,
	).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document %s: %w", userID, err)
	}
	return decodeDoc(raw)
}

// PutSimple stores the document under a plain user id, replacing any existing
// snapshot.
func (s *Store) PutSimple(ctx context.Context, userID string, doc types.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO user_documents (user_id, doc)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET doc = $2, updated_at = NOW()`,
		userID, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to put document %s: %w", userID, err)
	}
	return nil
}

// ScanProfiles returns every stored profile document across both identity
// schemes. Progress records are excluded.
func (s *Store) ScanProfiles(ctx context.Context) ([]types.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doc FROM profile_documents WHERE sk = 'profile'
		UNION ALL
		SELECT doc FROM user_documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan profiles: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func decodeDoc(raw []byte) (types.Document, error) {
	var doc types.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}
