package backoffice

import (
	"context"
	"errors"
	"sync"

	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/events"
)

// ErrConfirmationSpent is returned by a confirmation that was already
// confirmed or cancelled.
var ErrConfirmationSpent = errors.New("confirmation already used")

// Confirmation is a pending destructive action. The action runs only from
// Confirm, and at most once.
type Confirmation struct {
	Prompt string

	mu     sync.Mutex
	spent  bool
	action func(ctx context.Context) error
}

func newConfirmation(prompt string, action func(ctx context.Context) error) *Confirmation {
	return &Confirmation{Prompt: prompt, action: action}
}

func (c *Confirmation) Confirm(ctx context.Context) error {
	c.mu.Lock()
	if c.spent {
		c.mu.Unlock()
		return ErrConfirmationSpent
	}
	c.spent = true
	c.mu.Unlock()

	return c.action(ctx)
}

// Cancel discards the confirmation without running the action.
func (c *Confirmation) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spent = true
}

// DeleteTicket asks before deleting t.
func (b *Backoffice) DeleteTicket(t domain.Ticket) *Confirmation {
	prompt := "Are you sure you want to delete this selling record? PNR " + t.PNR + ", passenger " + t.PassengerName + "."

	return newConfirmation(prompt, func(ctx context.Context) error {
		_, err := b.api.DeleteTicket(ctx, t.ID)
		if err != nil {
			b.notify.Error(client.Notice(err, genericFailure))
			if client.IsNotFound(err) {
				b.bus.Publish(events.TicketsChanged("stale"))
			}
			return err
		}

		b.notify.Success("Selling record deleted successfully!")
		b.bus.Publish(events.TicketsChanged("delete"))
		return nil
	})
}

// DeletePortal asks before deleting p.
func (b *Backoffice) DeletePortal(p domain.Portal) *Confirmation {
	prompt := "Are you sure you want to delete portal " + p.Name + "?"

	return newConfirmation(prompt, func(ctx context.Context) error {
		_, err := b.api.DeletePortal(ctx, p.ID)
		if err != nil {
			b.notify.Error("Failed to delete portal: " + client.Notice(err, "Unknown error"))
			if client.IsNotFound(err) {
				b.bus.Publish(events.PortalsChanged("stale"))
			}
			return err
		}

		b.notify.Success("Portal deleted successfully!")
		b.bus.Publish(events.PortalsChanged("delete"))
		return nil
	})
}
