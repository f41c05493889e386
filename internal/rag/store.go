// Package rag indexes markdown folders into a local vector store and
// answers questions from the closest chunks.
package rag

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Chunk is one stored slice of a source document.
type Chunk struct {
	ID        int64
	Source    string
	Content   string
	Embedding []float32
}

// Store persists chunks and their embeddings in SQLite. Embeddings are
// stored as JSON arrays; the corpus is small enough that ranking happens
// in memory.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and migrates) the chunk database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open rag db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);
	`)
	if err != nil {
		return fmt.Errorf("migrate rag db: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceSource deletes all chunks of a source and inserts the new ones in
// one transaction, so re-indexing a file never leaves stale chunks behind.
func (s *Store) ReplaceSource(ctx context.Context, source string, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}
	for _, chunk := range chunks {
		emb, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO chunks (source, content, embedding) VALUES (?, ?, ?)`,
			source, chunk.Content, string(emb))
		if err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

// All returns every stored chunk.
func (s *Store) All(ctx context.Context) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, source, content, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var emb string
		if err := rows.Scan(&c.ID, &c.Source, &c.Content, &emb); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(emb), &c.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}
