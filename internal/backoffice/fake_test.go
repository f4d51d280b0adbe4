package backoffice

import (
	"context"
	"net/url"
	"sync"

	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/filter"
	"github.com/sellbook/sellbook/internal/statistics"
)

type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	tickets map[string]domain.Ticket

	listFn  func(ctx context.Context, p filter.Params) (*client.Response[[]domain.Ticket], error)
	statsFn func(w statistics.Window) (*client.Response[domain.Statistics], error)
	saveErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tickets: make(map[string]domain.Ticket)}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ListTickets(ctx context.Context, p filter.Params) (*client.Response[[]domain.Ticket], error) {
	f.record("ListTickets")
	if f.listFn != nil {
		return f.listFn(ctx, p)
	}
	return &client.Response[[]domain.Ticket]{Meta: domain.Meta{Page: 1, Limit: 10}}, nil
}

func (f *fakeAPI) GetTicket(ctx context.Context, id string) (*client.Response[domain.Ticket], error) {
	f.record("GetTicket")
	f.mu.Lock()
	t, ok := f.tickets[id]
	f.mu.Unlock()
	if !ok {
		return nil, &client.NotFoundError{RequestError: &client.RequestError{Status: 404, Message: "Ticket not found"}}
	}
	return &client.Response[domain.Ticket]{Data: t}, nil
}

func (f *fakeAPI) CreateTicket(ctx context.Context, t domain.Ticket) (*client.Response[domain.Ticket], error) {
	f.record("CreateTicket")
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	t.ID = "new"
	return &client.Response[domain.Ticket]{Data: t, Message: "created"}, nil
}

func (f *fakeAPI) UpdateTicket(ctx context.Context, id string, t domain.Ticket) (*client.Response[domain.Ticket], error) {
	f.record("UpdateTicket")
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	t.ID = id
	return &client.Response[domain.Ticket]{Data: t}, nil
}

func (f *fakeAPI) DeleteTicket(ctx context.Context, id string) (*client.Response[any], error) {
	f.record("DeleteTicket")
	return &client.Response[any]{}, nil
}

func (f *fakeAPI) ListPortals(ctx context.Context, q url.Values) (*client.Response[[]domain.Portal], error) {
	f.record("ListPortals")
	return &client.Response[[]domain.Portal]{Data: []domain.Portal{{ID: "p1", Name: "Sky Trip"}}}, nil
}

func (f *fakeAPI) CreatePortal(ctx context.Context, name string) (*client.Response[domain.Portal], error) {
	f.record("CreatePortal")
	return &client.Response[domain.Portal]{Data: domain.Portal{ID: "p2", Name: name}}, nil
}

func (f *fakeAPI) UpdatePortal(ctx context.Context, id, name string) (*client.Response[domain.Portal], error) {
	f.record("UpdatePortal")
	return &client.Response[domain.Portal]{Data: domain.Portal{ID: id, Name: name}}, nil
}

func (f *fakeAPI) DeletePortal(ctx context.Context, id string) (*client.Response[any], error) {
	f.record("DeletePortal")
	return &client.Response[any]{}, nil
}

func (f *fakeAPI) Statistics(ctx context.Context, w statistics.Window) (*client.Response[domain.Statistics], error) {
	f.record("Statistics")
	if f.statsFn != nil {
		return f.statsFn(w)
	}
	return &client.Response[domain.Statistics]{Data: domain.Statistics{TotalSelling: 3}}, nil
}

type notices struct {
	mu      sync.Mutex
	success []string
	errors  []string
}

func (n *notices) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, msg)
}

func (n *notices) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}
