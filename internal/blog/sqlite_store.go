package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var _ Storage = (*SQLiteStorage)(nil)

// SQLiteStorage keeps the collection in a posts table whose position column
// preserves list order. The snapshot row records that a save has happened,
// so an empty collection is distinguishable from a fresh database.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dsn string) (*SQLiteStorage, error) {
	// 确保数据库文件所在的目录存在
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// 设置繁忙超时，防止 locked 错误
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStorage) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS posts (
		position INTEGER PRIMARY KEY,
		id INTEGER NOT NULL,
		author TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		likes INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		saved_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

func (s *SQLiteStorage) Load(ctx context.Context) ([]Post, error) {
	var marker int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM snapshot WHERE id = 1").Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: read snapshot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, author, title, content, likes FROM posts ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("sqlite: query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Author, &p.Title, &p.Content, &p.Likes); err != nil {
			return nil, corruptf("sqlite row %d: %v", len(posts), err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate posts: %w", err)
	}
	return posts, nil
}

// Save replaces every row in one transaction.
func (s *SQLiteStorage) Save(ctx context.Context, posts []Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM posts"); err != nil {
		return fmt.Errorf("sqlite: clear posts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO posts (position, id, author, title, content, likes)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range posts {
		if _, err := stmt.ExecContext(ctx, i, p.ID, p.Author, p.Title, p.Content, p.Likes); err != nil {
			return fmt.Errorf("sqlite: insert post %d: %w", p.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO snapshot (id, saved_at) VALUES (1, ?)
	ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at
	`, time.Now().UTC()); err != nil {
		return fmt.Errorf("sqlite: mark snapshot: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
