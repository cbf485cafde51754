package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contactkeeper/contacts_api/internal/models"
)

// Snapshot is the cached view of a user: everything the session path needs,
// never the password hash.
type Snapshot struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Confirmed bool   `json:"confirmed"`
	Avatar    string `json:"avatar"`
}

func FromUser(u *models.User) *Snapshot {
	return &Snapshot{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Confirmed: u.Confirmed,
		Avatar:    u.Avatar,
	}
}

func (s *Snapshot) User() *models.User {
	return &models.User{
		ID:        s.ID,
		Username:  s.Username,
		Email:     s.Email,
		Role:      s.Role,
		Confirmed: s.Confirmed,
		Avatar:    s.Avatar,
	}
}

type State int

const (
	Hit State = iota
	Miss
	Failed
)

// Lookup makes the cache outcome explicit. Failed is logged where it happens;
// callers are expected to treat Failed exactly like Miss.
type Lookup struct {
	State State
	User  *Snapshot
}

const opTimeout = 500 * time.Millisecond

type UserCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
	log *slog.Logger
}

// New connects to Redis via URL (redis://:pass@host:6379/0) and pings it once
// so a misconfigured address fails at startup, not on the first request.
func New(redisURL string, ttl time.Duration, log *slog.Logger) (*UserCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return NewWithClient(rdb, ttl, log), nil
}

func NewWithClient(rdb redis.UniversalClient, ttl time.Duration, log *slog.Logger) *UserCache {
	if log == nil {
		log = slog.Default()
	}
	return &UserCache{rdb: rdb, ttl: ttl, log: log}
}

func key(username string) string { return "user:" + username }

func (c *UserCache) Get(ctx context.Context, username string) Lookup {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.rdb.Get(ctx, key(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Lookup{State: Miss}
	}
	if err != nil {
		c.log.Error("cache get failed", "username", username, "error", err)
		return Lookup{State: Failed}
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.log.Error("cache entry corrupt", "username", username, "error", err)
		return Lookup{State: Failed}
	}
	return Lookup{State: Hit, User: &snap}
}

func (c *UserCache) Put(ctx context.Context, snap *Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		c.log.Error("cache marshal failed", "username", snap.Username, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, key(snap.Username), data, c.ttl).Err(); err != nil {
		c.log.Error("cache set failed", "username", snap.Username, "error", err)
	}
}

func (c *UserCache) Delete(ctx context.Context, username string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.rdb.Del(ctx, key(username)).Err(); err != nil {
		c.log.Error("cache delete failed", "username", username, "error", err)
	}
}

func (c *UserCache) Close() error { return c.rdb.Close() }
