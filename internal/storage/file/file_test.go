package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "links.json")

	s, err := NewStorage(path)
	require.NoError(t, err)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	links := []model.ShortLink{
		{Code: "0000000a", OriginalURL: "https://a.example.com", OwnerID: "u1", CreatedAt: created},
		{Code: "0000000b", OriginalURL: "https://b.example.com", OwnerID: "u2", CreatedAt: created},
		{Code: "0000000c", OriginalURL: "https://c.example.com", OwnerID: "u1", CreatedAt: created},
	}
	for _, link := range links {
		require.NoError(t, s.Save(ctx, link))
	}

	reloaded, err := NewStorage(path)
	require.NoError(t, err)

	got, err := reloaded.Get(ctx, "0000000b")
	require.NoError(t, err)
	assert.Equal(t, links[1], got)

	owned, err := reloaded.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "0000000a", owned[0].Code)
	assert.Equal(t, "0000000c", owned[1].Code)

	urls, users, err := reloaded.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, urls)
	assert.Equal(t, 2, users)
}

func TestStorage_SaveDuplicateCode(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "links.json")

	s, err := NewStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, model.ShortLink{Code: "abcdef01", OriginalURL: "https://a.example.com", OwnerID: "u1"}))
	err = s.Save(ctx, model.ShortLink{Code: "abcdef01", OriginalURL: "https://b.example.com", OwnerID: "u1"})
	assert.ErrorIs(t, err, storage.ErrCodeExists)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record model.LinkRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		assert.NotEmpty(t, record.UUID)
		lines++
	}
	assert.Equal(t, 1, lines, "rejected link must not reach the file")
}

func TestStorage_GetMissing(t *testing.T) {
	s, err := NewStorage(filepath.Join(t.TempDir(), "links.json"))
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "ffffffff")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNewStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0644))

	_, err := NewStorage(path)
	assert.Error(t, err)
}
