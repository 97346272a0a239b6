package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres keeps every collection in a single documents table with a jsonb
// body and server-assigned timestamps.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Collection(name string) Collection {
	return &pgCollection{db: p.db, name: name}
}

type pgCollection struct {
	db   *sql.DB
	name string
}

func (c *pgCollection) GetAllDocs(ctx context.Context) ([]Document, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1
		ORDER BY created_at
	`, c.name)
	if err != nil {
		return nil, remoteErr(err)
	}
	defer rows.Close()

	docs := make([]Document, 0, 128)
	for rows.Next() {
		var doc Document
		var data []byte
		if err := rows.Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, remoteErr(err)
		}
		doc.Data = json.RawMessage(data)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, remoteErr(err)
	}

	return docs, nil
}

func (c *pgCollection) GetDoc(ctx context.Context, id string) (*Document, error) {
	var doc Document
	var data []byte
	err := c.db.QueryRowContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`, c.name, id).Scan(&doc.ID, &data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, remoteErr(err)
	}
	doc.Data = json.RawMessage(data)
	return &doc, nil
}

func (c *pgCollection) SetDoc(ctx context.Context, id string, data json.RawMessage) (*Document, error) {
	var doc Document
	var stored []byte
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		RETURNING id, data, created_at, updated_at
	`, c.name, id, string(data)).Scan(&doc.ID, &stored, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, remoteErr(err)
	}
	doc.Data = json.RawMessage(stored)
	return &doc, nil
}

func (c *pgCollection) UpdateDoc(ctx context.Context, id string, partial json.RawMessage) (*Document, error) {
	var doc Document
	var stored []byte
	err := c.db.QueryRowContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
		RETURNING id, data, created_at, updated_at
	`, c.name, id, string(partial)).Scan(&doc.ID, &stored, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, remoteErr(err)
	}
	doc.Data = json.RawMessage(stored)
	return &doc, nil
}

func (c *pgCollection) DeleteDoc(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, c.name, id)
	if err != nil {
		return remoteErr(err)
	}
	return nil
}

func remoteErr(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
