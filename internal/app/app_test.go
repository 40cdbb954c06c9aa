package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/auth"
	"github.com/MikhailRaia/secure-shortener/internal/config"
	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/storage/file"
	"github.com/MikhailRaia/secure-shortener/internal/storage/memory"
	"github.com/MikhailRaia/secure-shortener/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerAddress:   "127.0.0.1:0",
		ShutdownTimeout: 5 * time.Second,
		JWKSCacheTTL:    time.Hour,
	}
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestApp_Integration(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	server := httptest.NewServer(app.handler)
	defer server.Close()

	resp, err := http.Post(server.URL+"/urls", "application/json",
		bytes.NewBufferString(`{"url":"https://example.com","userId":"u1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var created model.CreateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Regexp(t, `^[0-9a-f]{8}$`, created.ShortCode)
	assert.Equal(t, server.URL+"/"+created.ShortCode, created.ShortURL)

	listResp, err := http.Get(server.URL + "/urls?userId=u1")
	require.NoError(t, err)
	defer listResp.Body.Close()

	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var list model.ListResponse
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list.URLs, 1)
	assert.Equal(t, created.ShortCode, list.URLs[0].ShortCode)
	assert.Equal(t, "https://example.com", list.URLs[0].OriginalURL)

	client := noRedirectClient()

	redirect, err := client.Get(server.URL + "/" + created.ShortCode)
	require.NoError(t, err)
	defer redirect.Body.Close()

	assert.Equal(t, http.StatusFound, redirect.StatusCode)
	assert.Equal(t, "https://example.com", redirect.Header.Get("Location"))

	missing, err := client.Get(server.URL + "/ffffffff")
	require.NoError(t, err)
	defer missing.Body.Close()

	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	otherResp, err := http.Get(server.URL + "/urls?userId=u2")
	require.NoError(t, err)
	defer otherResp.Body.Close()

	var other model.ListResponse
	require.NoError(t, json.NewDecoder(otherResp.Body).Decode(&other))
	assert.Empty(t, other.URLs)
}

func TestApp_ConfiguredBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = "https://sho.rt"

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	server := httptest.NewServer(app.handler)
	defer server.Close()

	resp, err := http.Post(server.URL+"/urls", "application/json",
		bytes.NewBufferString(`{"url":"https://example.com","userId":"u1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var created model.CreateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "https://sho.rt/"+created.ShortCode, created.ShortURL)
}

func TestNewStorage(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		check  func(t *testing.T, store interface{})
	}{
		{
			name:   "memory by default",
			mutate: func(cfg *config.Config) {},
			check: func(t *testing.T, store interface{}) {
				assert.IsType(t, &memory.Storage{}, store)
			},
		},
		{
			name: "file storage",
			mutate: func(cfg *config.Config) {
				cfg.FileStoragePath = filepath.Join(dir, "links.jsonl")
			},
			check: func(t *testing.T, store interface{}) {
				assert.IsType(t, &file.Storage{}, store)
			},
		},
		{
			name: "sqlite wins over file",
			mutate: func(cfg *config.Config) {
				cfg.FileStoragePath = filepath.Join(dir, "ignored.jsonl")
				cfg.SQLitePath = filepath.Join(dir, "links.db")
			},
			check: func(t *testing.T, store interface{}) {
				assert.IsType(t, &sqlite.Storage{}, store)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			store, closeStore, err := newStorage(context.Background(), cfg)
			require.NoError(t, err)
			defer closeStore()

			tt.check(t, store)
		})
	}
}

func TestNewVerifier(t *testing.T) {
	t.Run("trusted mode", func(t *testing.T) {
		assert.Nil(t, newVerifier(testConfig()))
	})

	t.Run("shared secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.AuthSecret = "secret"

		verifier := newVerifier(cfg)
		require.NotNil(t, verifier)

		token, err := auth.SignHS256("secret", "u1", "", "", time.Minute)
		require.NoError(t, err)

		identity, err := verifier.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "u1", identity.Subject)
	})

	t.Run("google sign-in", func(t *testing.T) {
		cfg := testConfig()
		cfg.OAuthClientID = "client-id"

		assert.IsType(t, &auth.Verifier{}, newVerifier(cfg))
	})
}

func TestGRPCBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.ServerAddress = ":8080"
	assert.Equal(t, "http://localhost:8080", grpcBaseURL(cfg))

	cfg.BaseURL = "https://sho.rt"
	assert.Equal(t, "https://sho.rt", grpcBaseURL(cfg))
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.GRPCAddress = "127.0.0.1:0"

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
