package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeJWK(kid string, pub *rsa.PublicKey) jwk {
	return jwk{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

func newJWKSServer(t *testing.T, keys ...jwk) (*httptest.Server, *int32) {
	t.Helper()

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwkSet{Keys: keys})
	}))
	t.Cleanup(server.Close)

	return server, &hits
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string, claims Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	require.NoError(t, err)

	return signed
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server, hits := newJWKSServer(t, encodeJWK("key-1", &key.PublicKey))
	keys := NewKeySet(server.URL, time.Hour, server.Client())
	verifier := NewJWKSVerifier(keys, WithIssuers("accounts.google.com"), WithAudience("client-id"))

	token := signRS256(t, key, "key-1", validClaims("google-sub-1"))

	identity, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", identity.Subject)
	assert.Equal(t, "google-sub-1@example.com", identity.Email)

	_, err = verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "keys must be cached")
}

func TestJWKSVerifier_UnknownKid(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server, hits := newJWKSServer(t, encodeJWK("key-1", &key.PublicKey))
	verifier := NewJWKSVerifier(NewKeySet(server.URL, time.Hour, server.Client()))

	_, err = verifier.Verify(context.Background(), signRS256(t, key, "key-1", validClaims("u")))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), signRS256(t, key, "key-2", validClaims("u")))
	assert.Equal(t, ErrInvalidToken, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "unknown kid right after a fetch must not refetch")
}

func TestJWKSVerifier_RejectsHMAC(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server, _ := newJWKSServer(t, encodeJWK("key-1", &key.PublicKey))
	verifier := NewJWKSVerifier(NewKeySet(server.URL, time.Hour, server.Client()))

	token := signClaims(t, jwt.SigningMethodHS256, []byte("guess"), validClaims("u"))

	_, err = verifier.Verify(context.Background(), token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestKeySet_EndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	keys := NewKeySet(server.URL, time.Hour, server.Client())

	_, err := keys.Key(context.Background(), "key-1")
	assert.Error(t, err)
}

func TestKeySet_SkipsNonSigningKeys(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	enc := encodeJWK("enc-key", &key.PublicKey)
	enc.Use = "enc"
	ec := jwk{Kty: "EC", Kid: "ec-key"}

	server, _ := newJWKSServer(t, enc, ec, encodeJWK("sig-key", &key.PublicKey))
	keys := NewKeySet(server.URL, time.Hour, server.Client())

	pub, err := keys.Key(context.Background(), "sig-key")
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey.N, pub.N)
	assert.Equal(t, key.PublicKey.E, pub.E)

	_, err = keys.Key(context.Background(), "enc-key")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestKeySet_ConcurrentCallersShareOneFetch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(jwkSet{Keys: []jwk{encodeJWK("key-1", &key.PublicKey)}})
	}))
	defer server.Close()

	keys := NewKeySet(server.URL, time.Hour, server.Client())

	const callers = 16
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := keys.Key(context.Background(), "key-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestKeySet_CancelledCallerDoesNotFailOthers(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server, _ := newJWKSServer(t, encodeJWK("key-1", &key.PublicKey))
	keys := NewKeySet(server.URL, time.Hour, server.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = keys.Key(ctx, "key-1")
	assert.NoError(t, err)
}

func TestKeySet_ZeroTTLIsClamped(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server, hits := newJWKSServer(t, encodeJWK("key-1", &key.PublicKey))
	keys := NewKeySet(server.URL, 0, server.Client())
	assert.Equal(t, minRefreshInterval, keys.ttl)

	for i := 0; i < 3; i++ {
		_, err := keys.Key(context.Background(), "key-1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}
