package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
	"github.com/MikhailRaia/secure-shortener/internal/storage/memory"
	"github.com/google/uuid"
)

// Storage implements LinkStorage backed by an append-only JSONL file.
// The file is replayed into an in-memory index on startup.
type Storage struct {
	filePath string
	index    *memory.Storage
	mu       sync.Mutex
}

// NewStorage creates a file-backed storage at the provided path.
func NewStorage(filePath string) (*Storage, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &Storage{
		filePath: filePath,
		index:    memory.NewStorage(),
	}

	if err := s.loadFromFile(); err != nil {
		return nil, err
	}

	return s, nil
}

// Save appends the link to the file and indexes it.
func (s *Storage) Save(ctx context.Context, link model.ShortLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.index.Get(ctx, link.Code); err == nil {
		return storage.ErrCodeExists
	}

	record := model.LinkRecord{
		UUID:        uuid.NewString(),
		Code:        link.Code,
		OriginalURL: link.OriginalURL,
		OwnerID:     link.OwnerID,
		CreatedAt:   link.CreatedAt,
	}

	if err := s.saveRecordToFile(record); err != nil {
		return err
	}

	return s.index.Save(ctx, link)
}

func (s *Storage) Get(ctx context.Context, code string) (model.ShortLink, error) {
	return s.index.Get(ctx, code)
}

func (s *Storage) ListByOwner(ctx context.Context, ownerID string) ([]model.ShortLink, error) {
	return s.index.ListByOwner(ctx, ownerID)
}

func (s *Storage) Stats(ctx context.Context) (int, int, error) {
	return s.index.Stats(ctx)
}

// Ping checks that the storage file is still accessible.
func (s *Storage) Ping(_ context.Context) error {
	_, err := os.Stat(s.filePath)
	return err
}

func (s *Storage) loadFromFile() error {
	file, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	ctx := context.Background()
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record model.LinkRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}

		// first record wins, matching Save which never overwrites
		if err := s.index.Save(ctx, record.ToLink()); err != nil && !errors.Is(err, storage.ErrCodeExists) {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return nil
}

func (s *Storage) saveRecordToFile(record model.LinkRecord) error {
	file, err := os.OpenFile(s.filePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file for writing: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}
