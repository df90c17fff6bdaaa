package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock func() error

// ErrNotFound is returned for keys that do not exist.
var ErrNotFound = errors.New("redis: key not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
}

type Config struct {
	LockExpirationSeconds   int     `envconfig:"CNIS_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"CNIS_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"CNIS_REDIS_PORT" default:"6379"`
	HASentinelPort          string  `envconfig:"CNIS_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"CNIS_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"CNIS_REDIS_AUTH_PASSWORD" default:""`
	AuthRequired            bool    `envconfig:"CNIS_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"CNIS_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"CNIS_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (*Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return nil, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateFailoverClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return NewFromUniversal(client, time.Duration(cfg.LockExpirationSeconds)*time.Second), nil
}

// NewFromUniversal wraps an existing connection, e.g. one pointed at miniredis.
func NewFromUniversal(client redis.UniversalClient, lockExpiration time.Duration) *Client {
	return &Client{client: client, lockExpiration: lockExpiration}
}

func CreateFailoverClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(float64(cfg.HASentinelSocketTimeout) * float64(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	options := redis.Options{
		Addr:       fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

func (client *Client) Ping(ctx context.Context) error {
	return client.client.Ping(ctx).Err()
}

func (client *Client) Get(ctx context.Context, key string) (string, error) {
	value, err := client.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return value, err
}

func (client *Client) GetJSON(ctx context.Context, key string, v interface{}) error {
	b, err := client.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err = json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (client *Client) SetJSON(ctx context.Context, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.client.Set(ctx, key, b, 0).Err()
}

// ZRevRange returns sorted set members from the highest score down, between
// ranks start and stop inclusive. A negative stop counts from the lowest score.
func (client *Client) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return client.client.ZRevRange(ctx, key, start, stop).Result()
}

// Batch queues writes that Atomically applies in one MULTI/EXEC transaction.
type Batch struct {
	ctx  context.Context
	pipe redis.Pipeliner
}

func (b *Batch) Set(key, value string) {
	b.pipe.Set(b.ctx, key, value, 0)
}

func (b *Batch) SetJSON(key string, v interface{}) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.pipe.Set(b.ctx, key, buf, 0)
	return nil
}

func (b *Batch) ZAdd(key string, score float64, member string) {
	b.pipe.ZAdd(b.ctx, key, &redis.Z{Score: score, Member: member})
}

func (client *Client) Atomically(ctx context.Context, fill func(b *Batch) error) error {
	_, err := client.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fill(&Batch{ctx: ctx, pipe: pipe})
	})
	return err
}

// Lock obtains a distributed lock named after redisKey, retrying for a few
// seconds before giving up.
func (client *Client) Lock(ctx context.Context, redisKey string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	strategy := redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30)
	lockKey := fmt.Sprintf("lock:%s", redisKey)
	lock, err := lockCl.Obtain(ctx, lockKey, client.lockExpiration, &redislock.Options{RetryStrategy: strategy})
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", lockKey, err)
	}
	return func() error {
		return lock.Release(context.Background())
	}, nil
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
