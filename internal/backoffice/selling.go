package backoffice

import (
	"context"
	"errors"
	"sync"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/events"
	"github.com/sellbook/sellbook/internal/filter"
)

// ErrSuperseded is returned for a list response that arrived after a
// newer filter or page was applied. The response is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

type SellingSnapshot struct {
	State  filter.State
	Params filter.Params
	Rows   []domain.Ticket
	Meta   domain.Meta
	Err    error
	Loaded bool
}

// SellingView is the ticket list. Applying a filter restarts at page 1;
// changing page keeps the filter.
type SellingView struct {
	api   API
	unsub func()

	mu     sync.Mutex
	gen    uint64
	state  filter.State
	params filter.Params
	rows   []domain.Ticket
	meta   domain.Meta
	err    error
	loaded bool
}

func NewSellingView(api API, bus *events.Bus) *SellingView {
	v := &SellingView{
		api:    api,
		state:  filter.Default(),
		params: filter.Translate(filter.Default()),
	}
	v.unsub = bus.Subscribe(events.Tickets, func(events.Invalidation) {
		_ = v.Refresh(context.Background())
	})
	return v
}

func (v *SellingView) Close() { v.unsub() }

// Apply replaces the filter state and loads its first page.
func (v *SellingView) Apply(ctx context.Context, s filter.State) error {
	return v.ApplyAt(ctx, s, 1)
}

// ApplyAt replaces the filter state and loads page n of it in one request.
func (v *SellingView) ApplyAt(ctx context.Context, s filter.State, n int) error {
	v.mu.Lock()
	v.state = s.Clone()
	v.params = filter.Translate(s)
	if n > 1 {
		v.params = v.params.WithPage(n)
	}
	gen, params := v.begin()
	v.mu.Unlock()

	return v.fetch(ctx, gen, params)
}

// Reset clears every filter.
func (v *SellingView) Reset(ctx context.Context) error {
	return v.Apply(ctx, filter.Default())
}

// SetPage loads page n of the current filter.
func (v *SellingView) SetPage(ctx context.Context, n int) error {
	v.mu.Lock()
	v.params = v.params.WithPage(n)
	gen, params := v.begin()
	v.mu.Unlock()

	return v.fetch(ctx, gen, params)
}

// Refresh reloads the current page.
func (v *SellingView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	gen, params := v.begin()
	v.mu.Unlock()

	return v.fetch(ctx, gen, params)
}

// begin must be called with mu held.
func (v *SellingView) begin() (uint64, filter.Params) {
	v.gen++
	return v.gen, v.params
}

func (v *SellingView) fetch(ctx context.Context, gen uint64, params filter.Params) error {
	resp, err := v.api.ListTickets(ctx, params)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		return ErrSuperseded
	}

	v.err = err
	if err != nil {
		return err
	}

	v.rows = resp.Data
	v.meta = resp.Meta
	v.loaded = true
	return nil
}

func (v *SellingView) Snapshot() SellingSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows := make([]domain.Ticket, len(v.rows))
	copy(rows, v.rows)

	return SellingSnapshot{
		State:  v.state.Clone(),
		Params: append(filter.Params(nil), v.params...),
		Rows:   rows,
		Meta:   v.meta,
		Err:    v.err,
		Loaded: v.loaded,
	}
}
