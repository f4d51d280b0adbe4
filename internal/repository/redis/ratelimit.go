package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// Every key is a sorted set of attempt timestamps. The attempt is added to
// all keys; the verdict is the strictest of them.
// ARGV: now_ms, window_ms, limit, member.
// Returns {allowed, attempts, retry_ms}.
const luaLoginAttempt = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

local allowed, attempts, retry = 1, 0, 0
for _, key in ipairs(KEYS) do
  redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
  redis.call('ZADD', key, now, member)
  redis.call('PEXPIRE', key, window)

  local count = redis.call('ZCARD', key)
  if count > attempts then attempts = count end
  if count > limit then
    allowed = 0
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local wait = window - (now - (tonumber(oldest[2]) or now))
    if wait > retry then retry = wait end
  end
end
return {allowed, attempts, retry}
`

// Verdict is the outcome of one login attempt check.
type Verdict struct {
	Allowed    bool
	Attempts   int64
	RetryAfter time.Duration
}

// LoginLimiter counts login attempts in a sliding window, both per client
// address and per account. A successful login clears the account count.
type LoginLimiter struct {
	rdb    *redis.Client
	clock  clockwork.Clock
	limit  int
	window time.Duration
	script *redis.Script
}

func NewLoginLimiter(rdb *redis.Client, clock clockwork.Clock, limit int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		rdb:    rdb,
		clock:  clock,
		limit:  limit,
		window: window,
		script: redis.NewScript(luaLoginAttempt),
	}
}

// Attempt records a login attempt from client for email. Empty values are
// not counted; with both empty every attempt is allowed.
func (l *LoginLimiter) Attempt(ctx context.Context, client, email string) (Verdict, error) {
	const op = "redis.LoginLimiter.Attempt"

	keys := l.keys(client, email)
	if len(keys) == 0 || l.limit <= 0 {
		return Verdict{Allowed: true}, nil
	}

	res, err := l.script.Run(ctx, l.rdb, keys,
		l.clock.Now().UnixMilli(),
		l.window.Milliseconds(),
		l.limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Verdict{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 3 {
		return Verdict{}, fmt.Errorf("%s: unexpected script result %v", op, res)
	}

	return Verdict{
		Allowed:    res[0] == 1,
		Attempts:   res[1],
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Clear forgets the attempts made for email.
func (l *LoginLimiter) Clear(ctx context.Context, email string) error {
	const op = "redis.LoginLimiter.Clear"

	if email = normalizeEmail(email); email == "" {
		return nil
	}
	if err := l.rdb.Del(ctx, KeyLoginAttempts("account", email)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (l *LoginLimiter) keys(client, email string) []string {
	var keys []string
	if client = strings.TrimSpace(client); client != "" {
		keys = append(keys, KeyLoginAttempts("client", client))
	}
	if email = normalizeEmail(email); email != "" {
		keys = append(keys, KeyLoginAttempts("account", email))
	}
	return keys
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
