package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/MikhailRaia/secure-shortener/internal/storage"
	"github.com/redis/go-redis/v9"
)

const (
	linkKeyPrefix  = "link:"
	ownerKeyPrefix = "owner:"
	ownersKey      = "owners"
	linkCountKey   = "links:count"

	fieldURL     = "url"
	fieldOwner   = "owner"
	fieldCreated = "created"
)

// Storage implements LinkStorage in Redis. Each link is a hash under link:<code>;
// owner:<id> is a list of codes in creation order.
type Storage struct {
	client *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewStorage(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 20,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return NewStorageFromClient(client), nil
}

func NewStorageFromClient(client *redis.Client) *Storage {
	return &Storage{client: client}
}

func linkKey(code string) string {
	return linkKeyPrefix + code
}

func ownerKey(ownerID string) string {
	return ownerKeyPrefix + ownerID
}

// saveScript claims KEYS[1] and writes the link, the owner index, the owner
// set and the counter in one step. Returns 0 when the code is already taken.
// Types are checked before the first write so a failing script leaves no keys.
var saveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
local owners = redis.call('TYPE', KEYS[2]).ok
if owners ~= 'none' and owners ~= 'list' then
	return redis.error_reply('WRONGTYPE ' .. KEYS[2] .. ' is not a list')
end
local set = redis.call('TYPE', KEYS[3]).ok
if set ~= 'none' and set ~= 'set' then
	return redis.error_reply('WRONGTYPE ' .. KEYS[3] .. ' is not a set')
end
local count = redis.call('GET', KEYS[4])
if count and not tonumber(count) then
	return redis.error_reply('ERR ' .. KEYS[4] .. ' is not an integer')
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2], ARGV[3], ARGV[4], ARGV[5], ARGV[6])
redis.call('RPUSH', KEYS[2], ARGV[7])
redis.call('SADD', KEYS[3], ARGV[4])
redis.call('INCR', KEYS[4])
return 1
`)

func (s *Storage) Save(ctx context.Context, link model.ShortLink) error {
	keys := []string{linkKey(link.Code), ownerKey(link.OwnerID), ownersKey, linkCountKey}

	saved, err := saveScript.Run(ctx, s.client, keys,
		fieldURL, link.OriginalURL,
		fieldOwner, link.OwnerID,
		fieldCreated, link.CreatedAt.UTC().Format(time.RFC3339Nano),
		link.Code,
	).Int()
	if err != nil {
		return fmt.Errorf("error saving link: %w", err)
	}
	if saved == 0 {
		return storage.ErrCodeExists
	}

	return nil
}

func (s *Storage) Get(ctx context.Context, code string) (model.ShortLink, error) {
	fields, err := s.client.HGetAll(ctx, linkKey(code)).Result()
	if err != nil {
		return model.ShortLink{}, fmt.Errorf("error reading link: %w", err)
	}

	return linkFromFields(code, fields)
}

func (s *Storage) ListByOwner(ctx context.Context, ownerID string) ([]model.ShortLink, error) {
	codes, err := s.client.LRange(ctx, ownerKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading owner links: %w", err)
	}

	result := make([]model.ShortLink, 0, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(codes))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, code := range codes {
			cmds[i] = pipe.HGetAll(ctx, linkKey(code))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error reading owner links: %w", err)
	}

	for i, cmd := range cmds {
		link, err := linkFromFields(codes[i], cmd.Val())
		if err != nil {
			return nil, err
		}
		result = append(result, link)
	}

	return result, nil
}

func (s *Storage) Stats(ctx context.Context) (int, int, error) {
	urls, err := s.client.Get(ctx, linkCountKey).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("error reading link count: %w", err)
	}

	users, err := s.client.SCard(ctx, ownersKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("error reading owner count: %w", err)
	}

	return urls, int(users), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Storage) Close() {
	_ = s.client.Close()
}

func linkFromFields(code string, fields map[string]string) (model.ShortLink, error) {
	originalURL, ok := fields[fieldURL]
	if !ok {
		return model.ShortLink{}, storage.ErrNotFound
	}

	link := model.ShortLink{
		Code:        code,
		OriginalURL: originalURL,
		OwnerID:     fields[fieldOwner],
	}

	if created := fields[fieldCreated]; created != "" {
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return model.ShortLink{}, fmt.Errorf("error parsing creation time of %s: %w", code, err)
		}
		link.CreatedAt = t
	}

	return link, nil
}
