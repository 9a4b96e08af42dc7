package serverstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gaspardpetit/augur/core/logx"
)

const (
	defaultRedisKey = "augur:state"
	redisOpTimeout  = 2 * time.Second
)

type redisStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisStore connects to the redis URL and returns a Store. The key is
// seeded with not_ready when absent.
func NewRedisStore(addr string) (*redisStore, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}
	rs := &redisStore{client: redis.NewUniversalClient(opts), key: defaultRedisKey}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := rs.client.Ping(ctx).Err(); err != nil {
		_ = rs.client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	b, _ := json.Marshal(State{Status: StatusNotReady})
	if err := rs.client.SetNX(ctx, rs.key, b, 0).Err(); err != nil {
		return nil, fmt.Errorf("redis seed state: %w", err)
	}
	return rs, nil
}

// parseRedisURL accepts host:port, redis://, rediss:// and
// redis-sentinel:// (rediss-sentinel://) URLs.
func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}
	scheme, sentinel := strings.CutSuffix(u.Scheme, "-sentinel")
	if scheme != "redis" && scheme != "rediss" {
		return nil, fmt.Errorf("redis: invalid URL scheme: %s", u.Scheme)
	}

	opts := &redis.UniversalOptions{Addrs: strings.Split(u.Host, ",")}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}
	if scheme == "rediss" {
		single, err := redis.ParseURL("rediss://" + opts.Addrs[0])
		if err != nil {
			return nil, err
		}
		opts.TLSConfig = single.TLSConfig
	}

	q := u.Query()
	path := strings.Trim(u.Path, "/")
	dbStr := q.Get("db")
	if sentinel {
		opts.MasterName = path
		opts.SentinelUsername = q.Get("sentinel_username")
		opts.SentinelPassword = q.Get("sentinel_password")
	} else if path != "" {
		dbStr = path
	}
	if dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("redis: invalid db: %v", err)
		}
		opts.DB = db
	}
	return opts, nil
}

func (r *redisStore) Load() State {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{Status: StatusNotReady}
	}
	if err != nil {
		logx.Log.Warn().Err(err).Msg("load state from redis")
		return State{Status: "unknown"}
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{Status: "unknown"}
	}
	return st
}

func (r *redisStore) Store(s State) {
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key, b, 0).Err(); err != nil {
		logx.Log.Warn().Err(err).Msg("store state in redis")
	}
}

// Close releases the redis connection.
func (r *redisStore) Close() error {
	return r.client.Close()
}
