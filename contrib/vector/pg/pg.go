// Package pg implements vector.VectorStore on PostgreSQL with the pgvector
// extension. Each row carries the chunk text and its provenance so search
// results reconstruct chunks without any process-local state.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	docqaerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/vector"
)

// Config holds pgvector configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int
	TableName string
}

// DefaultConfig returns default pgvector configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      5432,
		User:      "postgres",
		Password:  "postgres",
		DBName:    "docqa",
		SSLMode:   "disable",
		Dimension: 1536,
		TableName: "chunks",
	}
}

// Store implements vector.VectorStore using PostgreSQL with pgvector.
type Store struct {
	db        *sql.DB
	dimension int
	tableName string
}

// New connects to PostgreSQL, enables the pgvector extension, and creates the
// chunk table if missing.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w: %w", docqaerrors.ErrBackendUnavailable, err)
	}

	store := &Store{
		db:        db,
		dimension: config.Dimension,
		tableName: config.TableName,
	}
	if err := store.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("setup pgvector: %w", err)
	}
	return store, nil
}

func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		text TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		page TEXT NOT NULL DEFAULT '',
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.tableName, s.dimension)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// AddEmbeddings inserts the batch in a single transaction so all chunks of
// one document become searchable together or not at all.
func (s *Store) AddEmbeddings(ctx context.Context, embeddings []*vector.Embedding) error {
	for i, emb := range embeddings {
		if emb == nil {
			return fmt.Errorf("embedding %d is nil", i)
		}
		if emb.ID == "" {
			return fmt.Errorf("embedding %d has empty ID", i)
		}
		if len(emb.Vector) != s.dimension {
			return fmt.Errorf("embedding %q dimension mismatch: expected %d, got %d",
				emb.ID, s.dimension, len(emb.Vector))
		}
	}
	if len(embeddings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
	INSERT INTO %s (id, text, source, page, embedding)
	VALUES ($1, $2, $3, $4, $5::vector)
	ON CONFLICT (id) DO UPDATE SET
		text = EXCLUDED.text,
		source = EXCLUDED.source,
		page = EXCLUDED.page,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP
	`, s.tableName)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, emb := range embeddings {
		if _, err := stmt.ExecContext(ctx, emb.ID, emb.Text, emb.Source, emb.Page, vectorToString(emb.Vector)); err != nil {
			return fmt.Errorf("insert embedding %q: %w", emb.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Search orders rows by pgvector distance to the query and returns the topK
// nearest, best first.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d",
			s.dimension, len(queryVector))
	}
	if topK <= 0 {
		topK = 10
	}

	query := fmt.Sprintf(`
	SELECT id, text, source, page, embedding
	FROM %s
	ORDER BY embedding <-> $1::vector
	LIMIT $2
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, vectorToString(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("search embeddings: %w", err)
	}
	defer rows.Close()

	embeddings := make([]*vector.Embedding, 0, topK)
	for rows.Next() {
		var id, text, source, page, vectorStr string
		if err := rows.Scan(&id, &text, &source, &page, &vectorStr); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vec, err := stringToVector(vectorStr)
		if err != nil {
			return nil, fmt.Errorf("parse vector for embedding %s: %w", id, err)
		}
		embeddings = append(embeddings, &vector.Embedding{
			ID:     id,
			Text:   text,
			Source: source,
			Page:   page,
			Vector: vec,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return embeddings, nil
}

// DeleteEmbedding removes an embedding by ID.
func (s *Store) DeleteEmbedding(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("embedding %s: %w", id, docqaerrors.ErrNotFound)
	}
	return nil
}

// Clear removes all embeddings.
func (s *Store) Clear(ctx context.Context) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s", s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}
	return nil
}

// Count returns the number of embeddings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func stringToVector(str string) ([]float32, error) {
	str = strings.TrimPrefix(str, "[")
	str = strings.TrimSuffix(str, "]")
	parts := strings.Split(str, ",")

	vec := make([]float32, 0, len(parts))
	for i, part := range parts {
		var v float32
		n, err := fmt.Sscanf(strings.TrimSpace(part), "%f", &v)
		if err != nil || n != 1 {
			return nil, fmt.Errorf("parse vector component at index %d: %q", i, part)
		}
		vec = append(vec, v)
	}
	return vec, nil
}

var _ vector.VectorStore = (*Store)(nil)
