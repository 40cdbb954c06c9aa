package storage

import (
	"context"
	"errors"

	"github.com/MikhailRaia/secure-shortener/internal/model"
)

var (
	// ErrNotFound is returned when no link is stored under the requested code.
	ErrNotFound = errors.New("link not found")
	// ErrCodeExists is returned by Save when the code is already taken.
	// Stores never overwrite an existing link.
	ErrCodeExists = errors.New("short code already exists")
)

// LinkStorage persists short links. Implementations must be safe for concurrent use
// and return ListByOwner results in creation order.
type LinkStorage interface {
	Save(ctx context.Context, link model.ShortLink) error
	Get(ctx context.Context, code string) (model.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.ShortLink, error)
	Stats(ctx context.Context) (urls int, users int, err error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
