package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// ChangeKind names the record type a Change is about.
type ChangeKind string

const (
	ChangeSell   ChangeKind = "sell"
	ChangePortal ChangeKind = "portal"
)

// Change announces a committed write to one record.
type Change struct {
	Kind ChangeKind `json:"kind"`
	ID   string     `json:"id"`
	At   time.Time  `json:"at"`
}

// EventsPubSub fans record changes out to every API instance so each can
// drop its derived caches.
type EventsPubSub struct {
	rdb     *redis.Client
	clock   clockwork.Clock
	channel string
}

func NewEventsPubSub(rdb *redis.Client, clock clockwork.Clock) *EventsPubSub {
	return &EventsPubSub{
		rdb:     rdb,
		clock:   clock,
		channel: ChannelChanges(),
	}
}

func (p *EventsPubSub) PublishSellChanged(ctx context.Context, id string) error {
	return p.publish(ctx, ChangeSell, id)
}

func (p *EventsPubSub) PublishPortalChanged(ctx context.Context, id string) error {
	return p.publish(ctx, ChangePortal, id)
}

func (p *EventsPubSub) publish(ctx context.Context, kind ChangeKind, id string) error {
	const op = "redis.EventsPubSub.publish"

	b, err := json.Marshal(Change{Kind: kind, ID: id, At: p.clock.Now().UTC()})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Subscribe calls handler for every change until ctx is done. Payloads
// that do not decode to a Change are skipped.
func (p *EventsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, c Change)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var c Change
			if err := json.Unmarshal([]byte(m.Payload), &c); err != nil || c.Kind == "" {
				continue
			}
			handler(ctx, c)
		}
	}
}
