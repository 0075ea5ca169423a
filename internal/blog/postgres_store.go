package blog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Storage = (*PostgresStorage)(nil)

// PostgresStorage mirrors SQLiteStorage on top of a pgx connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			position INT PRIMARY KEY,
			id BIGINT NOT NULL,
			author TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			likes BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS snapshot (
			id INT PRIMARY KEY CHECK (id = 1),
			saved_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) Load(ctx context.Context) ([]Post, error) {
	var marker int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM snapshot WHERE id = 1`).Scan(&marker)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: read snapshot: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, author, title, content, likes
		FROM posts
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Author, &p.Title, &p.Content, &p.Likes); err != nil {
			return nil, corruptf("postgres row %d: %v", len(posts), err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate posts: %w", err)
	}
	return posts, nil
}

func (s *PostgresStorage) Save(ctx context.Context, posts []Post) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &pgx.Batch{}
	b.Queue(`DELETE FROM posts`)
	for i, p := range posts {
		b.Queue(`
			INSERT INTO posts (position, id, author, title, content, likes)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			i, p.ID, p.Author, p.Title, p.Content, p.Likes)
	}
	b.Queue(`
		INSERT INTO snapshot (id, saved_at) VALUES (1, now())
		ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at`)

	br := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("postgres: rewrite posts: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: rewrite posts: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
