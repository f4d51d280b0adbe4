package backoffice

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/events"
)

const portalPageSize = 100

// ErrEmptyPortalName is returned before any request when a portal name is
// blank.
var ErrEmptyPortalName = errors.New("portal name is empty")

const emptyPortalNotice = "Portal name cannot be empty."

// PortalView lists portals, optionally narrowed by a search term.
type PortalView struct {
	api    API
	notify Notifier
	unsub  func()

	mu     sync.Mutex
	gen    uint64
	search string
	rows   []domain.Portal
	meta   domain.Meta
	err    error
}

func NewPortalView(api API, bus *events.Bus, notify Notifier) *PortalView {
	v := &PortalView{api: api, notify: notify}
	v.unsub = bus.Subscribe(events.Portals, func(events.Invalidation) {
		_ = v.Refresh(context.Background())
	})
	return v
}

func (v *PortalView) Close() { v.unsub() }

func (v *PortalView) Search(ctx context.Context, term string) error {
	v.mu.Lock()
	v.search = strings.TrimSpace(term)
	v.gen++
	gen, search := v.gen, v.search
	v.mu.Unlock()

	return v.fetch(ctx, gen, search)
}

func (v *PortalView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.gen++
	gen, search := v.gen, v.search
	v.mu.Unlock()

	return v.fetch(ctx, gen, search)
}

func (v *PortalView) fetch(ctx context.Context, gen uint64, search string) error {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("limit", strconv.Itoa(portalPageSize))
	if search != "" {
		q.Set("searchTerm", search)
	}

	resp, err := v.api.ListPortals(ctx, q)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		return ErrSuperseded
	}

	v.err = err
	if err != nil {
		v.notify.Error("Failed to load portals.")
		return err
	}

	v.rows = resp.Data
	v.meta = resp.Meta
	return nil
}

func (v *PortalView) Rows() []domain.Portal {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]domain.Portal, len(v.rows))
	copy(out, v.rows)
	return out
}

func (v *PortalView) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// PortalEditor creates and renames portals. Name uniqueness is left to
// the server.
type PortalEditor struct {
	api    API
	bus    *events.Bus
	notify Notifier
}

func NewPortalEditor(api API, bus *events.Bus, notify Notifier) *PortalEditor {
	return &PortalEditor{api: api, bus: bus, notify: notify}
}

func (e *PortalEditor) Create(ctx context.Context, name string) (domain.Portal, error) {
	return e.save(ctx, "create", "", name)
}

func (e *PortalEditor) Rename(ctx context.Context, id, name string) (domain.Portal, error) {
	return e.save(ctx, "update", id, name)
}

func (e *PortalEditor) save(ctx context.Context, mode, id, name string) (domain.Portal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		e.notify.Error(emptyPortalNotice)
		return domain.Portal{}, ErrEmptyPortalName
	}

	var (
		resp *client.Response[domain.Portal]
		err  error
	)
	if mode == "create" {
		resp, err = e.api.CreatePortal(ctx, name)
	} else {
		resp, err = e.api.UpdatePortal(ctx, id, name)
	}
	if err != nil {
		e.notify.Error("Failed to " + mode + " portal: " + client.Notice(err, "Unknown error"))
		if client.IsNotFound(err) {
			e.bus.Publish(events.PortalsChanged("stale"))
		}
		return domain.Portal{}, err
	}

	if mode == "create" {
		e.notify.Success("Portal created successfully!")
	} else {
		e.notify.Success("Portal updated successfully!")
	}
	e.bus.Publish(events.PortalsChanged(mode))

	return resp.Data, nil
}
