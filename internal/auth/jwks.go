package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrUnknownKey = errors.New("unknown signing key")

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// KeySet fetches and caches RSA public keys from a JWKS endpoint.
// An unknown kid triggers at most one refetch per minute, and concurrent
// callers share a single fetch.
type KeySet struct {
	url     string
	ttl     time.Duration
	client  *http.Client
	fetches singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

const (
	minRefreshInterval = time.Minute
	fetchTimeout       = 10 * time.Second
)

// NewKeySet caches keys for ttl, which is raised to minRefreshInterval if shorter.
func NewKeySet(url string, ttl time.Duration, client *http.Client) *KeySet {
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	if ttl < minRefreshInterval {
		ttl = minRefreshInterval
	}

	return &KeySet{
		url:    url,
		ttl:    ttl,
		client: client,
		keys:   make(map[string]*rsa.PublicKey),
	}
}

// Key returns the public key with the given kid.
func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	key, ok := k.keys[kid]
	seen := k.fetchedAt
	k.mu.RUnlock()

	age := time.Since(seen)
	if ok && age < k.ttl {
		return key, nil
	}

	if ok || age >= minRefreshInterval {
		if err := k.refresh(ctx, seen); err != nil {
			if ok {
				// stale key is better than failing every request while the endpoint is down
				return key, nil
			}
			return nil, err
		}
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	key, ok = k.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, kid)
	}

	return key, nil
}

// refresh fetches the key set unless another caller already replaced the
// one fetched at seen. Concurrent refreshes share one request.
func (k *KeySet) refresh(ctx context.Context, seen time.Time) error {
	_, err, _ := k.fetches.Do(k.url, func() (interface{}, error) {
		k.mu.RLock()
		fresh := k.fetchedAt.After(seen)
		k.mu.RUnlock()
		if fresh {
			return nil, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		return nil, k.fetch(fetchCtx)
	})
	return err
}

func (k *KeySet) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("error building JWKS request: %w", err)
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("error fetching JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error fetching JWKS: unexpected status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("error decoding JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, key := range set.Keys {
		if key.Kty != "RSA" || (key.Use != "" && key.Use != "sig") {
			continue
		}

		pub, err := parseRSAKey(key)
		if err != nil {
			return err
		}
		keys[key.Kid] = pub
	}

	k.mu.Lock()
	k.keys = keys
	k.fetchedAt = time.Now()
	k.mu.Unlock()

	return nil
}

func parseRSAKey(key jwk) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, fmt.Errorf("error decoding modulus of key %q: %w", key.Kid, err)
	}

	e, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, fmt.Errorf("error decoding exponent of key %q: %w", key.Kid, err)
	}

	exponent := new(big.Int).SetBytes(e)
	if !exponent.IsInt64() || exponent.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("exponent of key %q is too large", key.Kid)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(exponent.Int64()),
	}, nil
}
