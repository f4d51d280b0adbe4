package backoffice

import (
	"context"
	"errors"
	"sync"

	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/events"
	"github.com/sellbook/sellbook/internal/ticket"
)

// ErrEditorClosed is returned when saving with no form open.
var ErrEditorClosed = errors.New("no ticket form is open")

// TicketEditor drives the create and edit dialogs. A failed save keeps the
// form open with its inputs intact.
type TicketEditor struct {
	api    API
	bus    *events.Bus
	notify Notifier

	mu   sync.Mutex
	form *ticket.Form
}

func NewTicketEditor(api API, bus *events.Bus, notify Notifier) *TicketEditor {
	return &TicketEditor{api: api, bus: bus, notify: notify}
}

// OpenCreate opens an empty form.
func (e *TicketEditor) OpenCreate() *ticket.Form {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.form = ticket.NewForm()
	return e.form
}

// OpenEdit loads the record and opens it for editing. A record that no
// longer exists refreshes the list instead.
func (e *TicketEditor) OpenEdit(ctx context.Context, id string) (*ticket.Form, error) {
	resp, err := e.api.GetTicket(ctx, id)
	if err != nil {
		e.notify.Error(client.Notice(err, genericFailure))
		if client.IsNotFound(err) {
			e.bus.Publish(events.TicketsChanged("stale"))
		}
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.form = ticket.EditForm(resp.Data)
	return e.form, nil
}

// Form returns the open form, or nil.
func (e *TicketEditor) Form() *ticket.Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form
}

func (e *TicketEditor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form = nil
}

// Save submits the open form. Validation failures never reach the
// network.
func (e *TicketEditor) Save(ctx context.Context) (domain.Ticket, error) {
	form := e.Form()
	if form == nil {
		return domain.Ticket{}, ErrEditorClosed
	}

	t, err := form.Submit()
	if err != nil {
		return domain.Ticket{}, err
	}

	var (
		resp    *client.Response[domain.Ticket]
		cause   string
		success string
	)
	if form.Mode() == ticket.ModeEdit {
		resp, err = e.api.UpdateTicket(ctx, form.ID(), t)
		cause, success = "update", "Selling record updated successfully!"
	} else {
		resp, err = e.api.CreateTicket(ctx, t)
		cause, success = "create", "Selling record created successfully!"
	}
	if err != nil {
		e.notify.Error(client.Notice(err, genericFailure))
		if client.IsNotFound(err) {
			e.bus.Publish(events.TicketsChanged("stale"))
		}
		return domain.Ticket{}, err
	}

	e.mu.Lock()
	if e.form == form {
		e.form = nil
	}
	e.mu.Unlock()

	e.notify.Success(success)
	e.bus.Publish(events.TicketsChanged(cause))

	return resp.Data, nil
}
