package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "cmdrouter:instances:"
	DefaultTTL       = 30 * time.Second
	scanCount        = 100
)

// RedisDirectory is a discovery directory of TTL'd instance keys.
// An instance that stops heartbeating expires on its own.
type RedisDirectory struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ port.DiscoveryDirectory = (*RedisDirectory)(nil)

func NewRedisDirectory(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisDirectory {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisDirectory{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (d *RedisDirectory) Register(ctx context.Context, instance port.ServiceInstance) error {
	if strings.TrimSpace(instance.ID) == "" {
		return fmt.Errorf("instance id is required")
	}
	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("encode instance %s: %w", instance.ID, err)
	}
	if err := d.client.Set(ctx, d.key(instance.ID), data, d.ttl).Err(); err != nil {
		return fmt.Errorf("register instance %s: %w", instance.ID, err)
	}
	return nil
}

func (d *RedisDirectory) Deregister(ctx context.Context, instanceID string) error {
	if err := d.client.Del(ctx, d.key(instanceID)).Err(); err != nil {
		return fmt.Errorf("deregister instance %s: %w", instanceID, err)
	}
	return nil
}

// Instances lists live instances sorted by ID. Entries that cannot be decoded
// are skipped.
func (d *RedisDirectory) Instances(ctx context.Context) ([]port.ServiceInstance, error) {
	var keys []string
	iter := d.client.Scan(ctx, 0, d.prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan instances: %w", err)
	}
	if len(keys) == 0 {
		return []port.ServiceInstance{}, nil
	}

	// One GET per key keeps every command single-slot on a cluster.
	cmds := make([]*redis.StringCmd, len(keys))
	// Per-command errors are inspected below.
	_, _ = d.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.Get(ctx, key)
		}
		return nil
	})

	instances := make([]port.ServiceInstance, 0, len(keys))
	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SCAN and GET.
			continue
		}
		var replyErr redis.Error
		if errors.As(err, &replyErr) {
			logger.Warnw("Skipping unreadable directory entry", "key", keys[i], "error", err.Error())
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read instances: %w", err)
		}
		var instance port.ServiceInstance
		if err := json.Unmarshal([]byte(raw), &instance); err != nil || instance.ID == "" {
			logger.Warnw("Skipping undecodable directory entry", "key", keys[i])
			continue
		}
		instances = append(instances, instance)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].ID < instances[j].ID
	})
	return instances, nil
}

func (d *RedisDirectory) key(id string) string {
	return d.prefix + id
}
