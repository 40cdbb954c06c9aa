package memory

import (
	"context"
	"sync"

	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
)

// Storage implements in-memory LinkStorage. Its contents live as long as the process.
type Storage struct {
	links      map[string]model.ShortLink
	ownerLinks map[string][]string
	mutex      sync.RWMutex
}

// NewStorage creates a new in-memory storage instance.
func NewStorage() *Storage {
	return &Storage{
		links:      make(map[string]model.ShortLink),
		ownerLinks: make(map[string][]string),
	}
}

// Save stores a new link. It fails with storage.ErrCodeExists if the code is taken.
func (s *Storage) Save(_ context.Context, link model.ShortLink) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.links[link.Code]; exists {
		return storage.ErrCodeExists
	}

	s.links[link.Code] = link
	s.ownerLinks[link.OwnerID] = append(s.ownerLinks[link.OwnerID], link.Code)

	return nil
}

// Get retrieves the link stored under code.
func (s *Storage) Get(_ context.Context, code string) (model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	link, found := s.links[code]
	if !found {
		return model.ShortLink{}, storage.ErrNotFound
	}

	return link, nil
}

// ListByOwner returns the owner's links in the order they were saved.
func (s *Storage) ListByOwner(_ context.Context, ownerID string) ([]model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	codes := s.ownerLinks[ownerID]
	result := make([]model.ShortLink, 0, len(codes))
	for _, code := range codes {
		result = append(result, s.links[code])
	}

	return result, nil
}

// Stats returns total number of links and owners.
func (s *Storage) Stats(_ context.Context) (int, int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.links), len(s.ownerLinks), nil
}

// Ping always succeeds.
func (s *Storage) Ping(_ context.Context) error {
	return nil
}
