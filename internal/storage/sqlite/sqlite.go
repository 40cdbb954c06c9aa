package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
	"github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS short_links (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL UNIQUE CHECK (code <> ''),
	original_url TEXT NOT NULL CHECK (original_url <> ''),
	owner_id TEXT NOT NULL CHECK (owner_id <> ''),
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_short_links_owner ON short_links(owner_id, seq);
`

// Storage implements LinkStorage in a single SQLite database file.
type Storage struct {
	db *sql.DB
}

// NewStorage opens (or creates) the database at path. ":memory:" is accepted.
func NewStorage(ctx context.Context, path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite database: %w", err)
	}

	// one connection: SQLite serializes writers anyway and :memory: is per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating schema: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Save(ctx context.Context, link model.ShortLink) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO short_links (code, original_url, owner_id, created_at) VALUES (?, ?, ?, ?)",
		link.Code, link.OriginalURL, link.OwnerID, link.CreatedAt.UnixNano(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return storage.ErrCodeExists
		}
		return fmt.Errorf("error inserting link: %w", err)
	}

	return nil
}

func (s *Storage) Get(ctx context.Context, code string) (model.ShortLink, error) {
	link := model.ShortLink{Code: code}
	var created int64

	err := s.db.QueryRowContext(ctx,
		"SELECT original_url, owner_id, created_at FROM short_links WHERE code = ?", code,
	).Scan(&link.OriginalURL, &link.OwnerID, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ShortLink{}, storage.ErrNotFound
		}
		return model.ShortLink{}, fmt.Errorf("error querying link: %w", err)
	}

	link.CreatedAt = time.Unix(0, created).UTC()
	return link, nil
}

func (s *Storage) ListByOwner(ctx context.Context, ownerID string) ([]model.ShortLink, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT code, original_url, owner_id, created_at FROM short_links WHERE owner_id = ? ORDER BY seq",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying owner links: %w", err)
	}
	defer rows.Close()

	result := make([]model.ShortLink, 0)
	for rows.Next() {
		var link model.ShortLink
		var created int64
		if err := rows.Scan(&link.Code, &link.OriginalURL, &link.OwnerID, &created); err != nil {
			return nil, fmt.Errorf("error scanning link: %w", err)
		}
		link.CreatedAt = time.Unix(0, created).UTC()
		result = append(result, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner links: %w", err)
	}

	return result, nil
}

func (s *Storage) Stats(ctx context.Context) (int, int, error) {
	var urls, users int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT owner_id) FROM short_links",
	).Scan(&urls, &users)
	if err != nil {
		return 0, 0, fmt.Errorf("error querying stats: %w", err)
	}

	return urls, users, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() {
	_ = s.db.Close()
}
