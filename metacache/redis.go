// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package metacache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardinalhq/metastore/internal/dbopen"
)

// RedisDriver is the remote cache backend.
type RedisDriver struct {
	client *redis.Client
}

var _ Driver = (*RedisDriver)(nil)

// NewRedisDriver connects to redis and verifies the connection with a
// short ping before returning.
func NewRedisDriver(settings dbopen.RedisSettings) (*RedisDriver, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     settings.Addr,
		Username: settings.Username,
		Password: settings.Password,
		DB:       settings.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return &RedisDriver{client: client}, nil
}

func (d *RedisDriver) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := d.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (d *RedisDriver) Set(ctx context.Context, key string, value []byte) error {
	return d.client.Set(ctx, key, value, 0).Err()
}

func (d *RedisDriver) SetExpiring(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return d.client.Set(ctx, key, value, ttl).Err()
}

func (d *RedisDriver) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return d.client.IncrBy(ctx, key, delta).Result()
}

func (d *RedisDriver) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return d.client.Del(ctx, keys...).Err()
}

func (d *RedisDriver) Scan(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := d.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *RedisDriver) Flush(ctx context.Context) error {
	return d.client.FlushDB(ctx).Err()
}

func (d *RedisDriver) Export(ctx context.Context) (map[string][]byte, error) {
	keys, err := d.Scan(ctx, "*")
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		val, ok, err := d.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = val
		}
	}
	return out, nil
}

func (d *RedisDriver) Close() error {
	return d.client.Close()
}
