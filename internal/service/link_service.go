package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/generator"
	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
)

// maxCodeAttempts bounds code regeneration when a store reports a collision.
const maxCodeAttempts = 5

var (
	// ErrInvalidInput is the root of every validation error returned by LinkService.
	ErrInvalidInput = errors.New("invalid input")

	ErrMissingURL   = fmt.Errorf("%w: url is required", ErrInvalidInput)
	ErrMissingOwner = fmt.Errorf("%w: userId is required", ErrInvalidInput)
	ErrInvalidURL   = fmt.Errorf("%w: invalid URL format", ErrInvalidInput)
	ErrMissingCode  = fmt.Errorf("%w: short code is required", ErrInvalidInput)
)

// LinkService provides business logic for creating, resolving and listing short links.
type LinkService struct {
	storage  storage.LinkStorage
	baseURL  string
	generate func() (string, error)
	now      func() time.Time
}

type Option func(*LinkService)

// WithCodeGenerator replaces the crypto/rand code generator.
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(s *LinkService) {
		s.generate = generate
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *LinkService) {
		s.now = now
	}
}

// NewLinkService constructs a LinkService. An empty baseURL makes short URLs
// derive from the request host.
func NewLinkService(storage storage.LinkStorage, baseURL string, opts ...Option) *LinkService {
	s := &LinkService{
		storage:  storage,
		baseURL:  strings.TrimRight(baseURL, "/"),
		generate: generator.GenerateCode,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ValidateURL accepts only absolute http(s) URLs with a host.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrMissingURL
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return ErrInvalidURL
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}

	if u.Host == "" {
		return ErrInvalidURL
	}

	return nil
}

// Create stores a new link for ownerID and returns it.
func (s *LinkService) Create(ctx context.Context, originalURL, ownerID string) (model.ShortLink, error) {
	if err := ValidateURL(originalURL); err != nil {
		return model.ShortLink{}, err
	}

	if strings.TrimSpace(ownerID) == "" {
		return model.ShortLink{}, ErrMissingOwner
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return model.ShortLink{}, fmt.Errorf("error generating code: %w", err)
		}

		link := model.ShortLink{
			Code:        code,
			OriginalURL: originalURL,
			OwnerID:     ownerID,
			CreatedAt:   s.now().UTC(),
		}

		err = s.storage.Save(ctx, link)
		if err == nil {
			return link, nil
		}

		if !errors.Is(err, storage.ErrCodeExists) {
			return model.ShortLink{}, fmt.Errorf("error saving link: %w", err)
		}
	}

	return model.ShortLink{}, fmt.Errorf("no free code after %d attempts: %w", maxCodeAttempts, storage.ErrCodeExists)
}

// Resolve returns the original URL stored under code or storage.ErrNotFound.
func (s *LinkService) Resolve(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", ErrMissingCode
	}

	link, err := s.storage.Get(ctx, code)
	if err != nil {
		return "", err
	}

	return link.OriginalURL, nil
}

// List returns ownerID's links in creation order.
func (s *LinkService) List(ctx context.Context, ownerID string) ([]model.ShortLink, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrMissingOwner
	}

	links, err := s.storage.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error getting owner links: %w", err)
	}

	if links == nil {
		links = []model.ShortLink{}
	}

	return links, nil
}

// ShortURL builds the absolute short URL for code. The configured base URL takes
// precedence over requestBase.
func (s *LinkService) ShortURL(requestBase, code string) string {
	base := s.baseURL
	if base == "" {
		base = requestBase
	}

	shortURL, err := url.JoinPath(base, code)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + code
	}

	return shortURL
}

// Stats returns total number of links and owners.
func (s *LinkService) Stats(ctx context.Context) (int, int, error) {
	return s.storage.Stats(ctx)
}
