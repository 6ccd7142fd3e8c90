package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onlineKey   = "presence:online"
	lastSeenKey = "presence:last_seen"
)

// RedisPresenceStore keeps advisory presence outside the process: an
// online ZSET scored by last check-in and a per-user last-seen hash.
// The in-memory registry stays authoritative; this data only survives
// restarts so user_status can report a last-seen time.
type RedisPresenceStore struct {
	rdb *redis.Client
}

func NewRedisPresenceStore(rdb *redis.Client) *RedisPresenceStore {
	return &RedisPresenceStore{rdb: rdb}
}

func (p *RedisPresenceStore) TouchOnline(ctx context.Context, userID string, at time.Time) error {
	if err := p.rdb.ZAdd(ctx, onlineKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: userID,
	}).Err(); err != nil {
		return err
	}
	return p.rdb.HSet(ctx, lastSeenKey, userID, at.Unix()).Err()
}

func (p *RedisPresenceStore) TouchOffline(ctx context.Context, userID string, at time.Time) error {
	if err := p.rdb.ZRem(ctx, onlineKey, userID).Err(); err != nil {
		return err
	}
	return p.rdb.HSet(ctx, lastSeenKey, userID, at.Unix()).Err()
}

func (p *RedisPresenceStore) LastSeen(ctx context.Context, userID string) (time.Time, error) {
	v, err := p.rdb.HGet(ctx, lastSeenKey, userID).Result()
	if err != nil {
		return time.Time{}, err
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(sec, 0).UTC(), nil
}
