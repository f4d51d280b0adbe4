package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayPending = "pending"

// Claims the key when it is free. Returns the stored value otherwise.
// ARGV: pending mark, lock ttl in ms.
const luaClaimReplay = `
local v = redis.call('GET', KEYS[1])
if v then return v end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return false
`

// ReplayState says what an Idempotency-Key claim found.
type ReplayState int

const (
	// ReplayClaimed means the caller owns the key and must Finish or Abandon it.
	ReplayClaimed ReplayState = iota
	// ReplayPending means another request with the key is still running.
	ReplayPending
	// ReplayDone means a stored response is available.
	ReplayDone
)

// Replay is the response a finished create request left behind.
type Replay struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// CreateReplays lets a client retry a ticket create with the same
// Idempotency-Key and get the first response back instead of a duplicate
// record. Keys are scoped to the account that sent them.
type CreateReplays struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	claim   *redis.Script
}

func NewCreateReplays(rdb *redis.Client, ttl, lockTTL time.Duration) *CreateReplays {
	return &CreateReplays{
		rdb:     rdb,
		ttl:     ttl,
		lockTTL: lockTTL,
		claim:   redis.NewScript(luaClaimReplay),
	}
}

// Claim takes the key for subject, or reports why it cannot.
func (r *CreateReplays) Claim(ctx context.Context, subject, key string) (ReplayState, Replay, error) {
	const op = "redis.CreateReplays.Claim"

	v, err := r.claim.Run(ctx, r.rdb, []string{KeyCreateReplay(subject, key)},
		replayPending,
		r.lockTTL.Milliseconds(),
	).Text()
	if errors.Is(err, redis.Nil) {
		return ReplayClaimed, Replay{}, nil
	}
	if err != nil {
		return 0, Replay{}, fmt.Errorf("%s: %w", op, err)
	}
	if v == replayPending {
		return ReplayPending, Replay{}, nil
	}

	var rep Replay
	if err := json.Unmarshal([]byte(v), &rep); err != nil {
		return 0, Replay{}, fmt.Errorf("%s: %w", op, err)
	}
	return ReplayDone, rep, nil
}

// Finish stores the response for later retries.
func (r *CreateReplays) Finish(ctx context.Context, subject, key string, rep Replay) error {
	const op = "redis.CreateReplays.Finish"

	b, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.rdb.Set(ctx, KeyCreateReplay(subject, key), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Abandon frees the key after a failed create so the client may retry.
func (r *CreateReplays) Abandon(ctx context.Context, subject, key string) error {
	const op = "redis.CreateReplays.Abandon"

	if err := r.rdb.Del(ctx, KeyCreateReplay(subject, key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
