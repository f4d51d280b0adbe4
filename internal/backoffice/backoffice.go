// Package backoffice coordinates the screens of the back office: list and
// dashboard views, the record editors and delete confirmations. After any
// mutation it marks the affected views stale and they fetch again.
package backoffice

import (
	"context"
	"net/url"

	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/events"
	"github.com/sellbook/sellbook/internal/filter"
	"github.com/sellbook/sellbook/internal/statistics"
)

// API is the part of the REST client the back office uses.
type API interface {
	ListTickets(ctx context.Context, params filter.Params) (*client.Response[[]domain.Ticket], error)
	GetTicket(ctx context.Context, id string) (*client.Response[domain.Ticket], error)
	CreateTicket(ctx context.Context, t domain.Ticket) (*client.Response[domain.Ticket], error)
	UpdateTicket(ctx context.Context, id string, t domain.Ticket) (*client.Response[domain.Ticket], error)
	DeleteTicket(ctx context.Context, id string) (*client.Response[any], error)

	ListPortals(ctx context.Context, query url.Values) (*client.Response[[]domain.Portal], error)
	CreatePortal(ctx context.Context, name string) (*client.Response[domain.Portal], error)
	UpdatePortal(ctx context.Context, id, name string) (*client.Response[domain.Portal], error)
	DeletePortal(ctx context.Context, id string) (*client.Response[any], error)

	Statistics(ctx context.Context, w statistics.Window) (*client.Response[domain.Statistics], error)
}

// Notifier shows transient success and error notices.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

const genericFailure = "Something went wrong!"

// Backoffice wires the views and editors to one API and one bus.
type Backoffice struct {
	api    API
	bus    *events.Bus
	notify Notifier

	Selling    *SellingView
	Statistics *StatisticsView
	Portals    *PortalView
}

func New(api API, bus *events.Bus, notify Notifier) *Backoffice {
	return &Backoffice{
		api:        api,
		bus:        bus,
		notify:     notify,
		Selling:    NewSellingView(api, bus),
		Statistics: NewStatisticsView(api, bus, notify),
		Portals:    NewPortalView(api, bus, notify),
	}
}

func (b *Backoffice) Close() {
	b.Selling.Close()
	b.Statistics.Close()
	b.Portals.Close()
}

func (b *Backoffice) NewTicket() *TicketEditor {
	return NewTicketEditor(b.api, b.bus, b.notify)
}

func (b *Backoffice) PortalEditor() *PortalEditor {
	return NewPortalEditor(b.api, b.bus, b.notify)
}

// LoggedIn marks every cached read stale after a new login.
func (b *Backoffice) LoggedIn() {
	b.bus.Publish(events.LoggedIn())
}
