package redis

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"github.com/secmon-lab/reactask/pkg/domain/interfaces"
	"github.com/secmon-lab/reactask/pkg/domain/model"
)

const (
	defaultKeyPrefix = "reactask:fp:"
	defaultTTL       = 24 * time.Hour
)

// FingerprintCache remembers committed fingerprints in Redis so that
// redeliveries can be rejected without touching the primary store.
type FingerprintCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ interfaces.FingerprintCache = &FingerprintCache{}

type Option func(*FingerprintCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *FingerprintCache) {
		c.ttl = ttl
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(c *FingerprintCache) {
		c.prefix = prefix
	}
}

func NewFingerprintCache(client redis.UniversalClient, opts ...Option) *FingerprintCache {
	c := &FingerprintCache{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect parses a redis:// URL and verifies the server is reachable
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", opts.Addr))
	}
	return client, nil
}

func (c *FingerprintCache) key(k model.FingerprintKey) string {
	return c.prefix + string(k)
}

func (c *FingerprintCache) Get(ctx context.Context, key model.FingerprintKey) (model.TaskID, bool, error) {
	v, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to get fingerprint from redis", goerr.V("key", key))
	}
	return model.TaskID(v), true, nil
}

func (c *FingerprintCache) Set(ctx context.Context, key model.FingerprintKey, taskID model.TaskID) error {
	// SetNX keeps the first committed task id when two workers race
	if err := c.client.SetNX(ctx, c.key(key), string(taskID), c.ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to set fingerprint in redis", goerr.V("key", key))
	}
	return nil
}
