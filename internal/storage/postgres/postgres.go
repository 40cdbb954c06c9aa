package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Storage implements LinkStorage on top of a PostgreSQL connection pool.
type Storage struct {
	pool *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*Storage, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is empty")
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	s := &Storage{
		pool: pool,
	}

	if err := s.createTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Storage) createTable(ctx context.Context) error {
	// seq keeps creation order stable when created_at values collide
	createTableQuery := `
		CREATE TABLE IF NOT EXISTS short_links (
			seq BIGSERIAL,
			code VARCHAR(16) PRIMARY KEY,
			original_url TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
	`

	if _, err := s.pool.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}

	createIndexQuery := `
		CREATE INDEX IF NOT EXISTS idx_short_links_owner ON short_links(owner_id, seq);
	`

	if _, err := s.pool.Exec(ctx, createIndexQuery); err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}

	return nil
}

func (s *Storage) Save(ctx context.Context, link model.ShortLink) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO short_links (code, original_url, owner_id, created_at) VALUES ($1, $2, $3, $4)",
		link.Code, link.OriginalURL, link.OwnerID, link.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return storage.ErrCodeExists
		}
		return fmt.Errorf("error inserting link into database: %w", err)
	}

	return nil
}

func (s *Storage) Get(ctx context.Context, code string) (model.ShortLink, error) {
	link := model.ShortLink{Code: code}

	err := s.pool.QueryRow(ctx,
		"SELECT original_url, owner_id, created_at FROM short_links WHERE code = $1", code,
	).Scan(&link.OriginalURL, &link.OwnerID, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ShortLink{}, storage.ErrNotFound
		}
		return model.ShortLink{}, fmt.Errorf("error querying link: %w", err)
	}

	return link, nil
}

func (s *Storage) ListByOwner(ctx context.Context, ownerID string) ([]model.ShortLink, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT code, original_url, owner_id, created_at FROM short_links WHERE owner_id = $1 ORDER BY seq",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying owner links: %w", err)
	}
	defer rows.Close()

	result := make([]model.ShortLink, 0)
	for rows.Next() {
		var link model.ShortLink
		if err := rows.Scan(&link.Code, &link.OriginalURL, &link.OwnerID, &link.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning link: %w", err)
		}
		result = append(result, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner links: %w", err)
	}

	return result, nil
}

func (s *Storage) Stats(ctx context.Context) (int, int, error) {
	var urls, users int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT owner_id) FROM short_links",
	).Scan(&urls, &users)
	if err != nil {
		return 0, 0, fmt.Errorf("error querying stats: %w", err)
	}

	return urls, users, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
