package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryCheckpoint keeps checkpoints for the life of the process.
type MemoryCheckpoint struct {
	mu   sync.Mutex
	seqs map[string]uint64
}

func NewMemoryCheckpoint() *MemoryCheckpoint {
	return &MemoryCheckpoint{seqs: make(map[string]uint64)}
}

func (c *MemoryCheckpoint) Load(_ context.Context, route string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seqs[route], nil
}

func (c *MemoryCheckpoint) Save(_ context.Context, route string, seq uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq > c.seqs[route] {
		c.seqs[route] = seq
	}
	return nil
}

const checkpointKeyPrefix = "relay:checkpoint:"

// saveScript only ever moves a checkpoint forward, so two relayers racing on
// one route cannot rewind it.
var saveScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local seq = tonumber(ARGV[1])
if seq > cur then
	redis.call("SET", KEYS[1], ARGV[1])
	return seq
end
return cur
`)

// RedisCheckpoint stores checkpoints as plain integer keys.
type RedisCheckpoint struct {
	client redis.Cmdable
}

// NewRedisCheckpoint accepts any go-redis client (*redis.Client, cluster or
// ring).
func NewRedisCheckpoint(client redis.Cmdable) *RedisCheckpoint {
	return &RedisCheckpoint{client: client}
}

func (c *RedisCheckpoint) Load(ctx context.Context, route string) (uint64, error) {
	v, err := c.client.Get(ctx, checkpointKeyPrefix+route).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}
	seq, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse checkpoint %q: %w", v, err)
	}
	return seq, nil
}

func (c *RedisCheckpoint) Save(ctx context.Context, route string, seq uint64) error {
	keys := []string{checkpointKeyPrefix + route}
	if err := saveScript.Run(ctx, c.client, keys, seq).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}
