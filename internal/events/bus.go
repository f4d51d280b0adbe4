// Package events carries cache invalidations between the parts of the
// back office that mutate data and the views that display it.
package events

import (
	"sync"
)

// Resource names a group of cached reads.
type Resource string

const (
	Tickets    Resource = "Sell"
	Portals    Resource = "Portal"
	Statistics Resource = "statistic"
)

// Invalidation marks resources stale after a mutation.
type Invalidation struct {
	Cause     string
	Resources []Resource
}

func TicketsChanged(cause string) Invalidation {
	return Invalidation{Cause: cause, Resources: []Resource{Tickets, Statistics}}
}

// PortalsChanged also marks tickets stale, since list rows show portal names.
func PortalsChanged(cause string) Invalidation {
	return Invalidation{Cause: cause, Resources: []Resource{Portals, Tickets}}
}

func LoggedIn() Invalidation {
	return Invalidation{Cause: "login", Resources: []Resource{Portals, Tickets, Statistics}}
}

type Handler func(Invalidation)

type subscription struct {
	id int
	fn Handler
}

// Bus delivers invalidations synchronously to subscribers of each named
// resource.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Resource][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Resource][]subscription)}
}

// Subscribe registers fn for r and returns a function that removes it.
func (b *Bus) Subscribe(r Resource, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	b.subs[r] = append(b.subs[r], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		list := b.subs[r]
		for i, s := range list {
			if s.id == id {
				b.subs[r] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(inv Invalidation) {
	b.mu.RLock()
	var targets []subscription
	seen := make(map[int]bool)
	for _, r := range inv.Resources {
		for _, s := range b.subs[r] {
			if !seen[s.id] {
				seen[s.id] = true
				targets = append(targets, s)
			}
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		s.fn(inv)
	}
}
