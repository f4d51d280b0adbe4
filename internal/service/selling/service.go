package selling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/repository"
	postgresrepo "github.com/sellbook/sellbook/internal/repository/postgres"
	redisrepo "github.com/sellbook/sellbook/internal/repository/redis"
	"github.com/sellbook/sellbook/internal/slip"
	"github.com/sellbook/sellbook/internal/statistics"
	"github.com/sellbook/sellbook/internal/ticket"
	"github.com/sellbook/sellbook/internal/uow"
)

type Config struct {
	StatisticsTTL time.Duration
	Company       slip.Company
}

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.EventsPubSub
	uow    *uow.UoW
	clock  clockwork.Clock
	logger *slog.Logger
	cfg    Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	clock clockwork.Clock,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.StatisticsTTL <= 0 {
		cfg.StatisticsTTL = 5 * time.Minute
	}

	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
		clock:  clock,
		logger: logger,
		cfg:    cfg,
	}
}

// List returns one page of tickets matching q.
func (s *Service) List(ctx context.Context, q domain.TicketQuery) ([]domain.Ticket, domain.Meta, error) {
	const op = "service.selling.List"

	items, total, err := s.store.Tickets().List(ctx, q)
	if err != nil {
		return nil, domain.Meta{}, fmt.Errorf("%s: %w", op, err)
	}

	return items, domain.NewMeta(q.Page, q.Limit, total), nil
}

// Get returns the ticket with id, portal populated.
//
// Returns:
//   - error: selling.ErrTicketNotFound if no ticket has the id.
func (s *Service) Get(ctx context.Context, id string) (domain.Ticket, error) {
	const op = "service.selling.Get"

	t, err := s.store.Tickets().Get(ctx, id)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return t, nil
}

// Create stores a new ticket. Derived fields are recomputed from the
// prices, whatever the caller sent.
//
// Returns:
//   - error: *ticket.ValidationError if the record is incomplete.
//   - error: selling.ErrPortalNotFound if the portal does not exist.
func (s *Service) Create(ctx context.Context, in domain.Ticket) (domain.Ticket, error) {
	const op = "service.selling.Create"

	t, err := prepare(in)
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.clock.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now

	var out domain.Ticket

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		repo := s.store.Tickets().With(tx)

		if err := repo.Create(ctx, t); err != nil {
			return mapErr(err)
		}

		created, err := repo.Get(ctx, t.ID)
		if err != nil {
			return err
		}
		out = created

		after(s.changed(t.ID))

		return nil
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Update loads the ticket with id, lets apply change it and stores the
// result. Only the fields apply touches change.
//
// Returns:
//   - error: selling.ErrTicketNotFound if no ticket has the id.
//   - error: *ticket.ValidationError if the result is incomplete.
//   - error: selling.ErrPortalNotFound if the portal does not exist.
func (s *Service) Update(ctx context.Context, id string, apply func(*domain.Ticket) error) (domain.Ticket, error) {
	const op = "service.selling.Update"

	var out domain.Ticket

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		repo := s.store.Tickets().With(tx)

		current, err := repo.Get(ctx, id)
		if err != nil {
			return mapErr(err)
		}

		if err := apply(&current); err != nil {
			return err
		}

		t, err := prepare(current)
		if err != nil {
			return err
		}
		t.ID = id
		t.UpdatedAt = s.clock.Now().UTC()

		if err := repo.Update(ctx, t); err != nil {
			return mapErr(err)
		}

		updated, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		out = updated

		after(s.changed(id))

		return nil
	})
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Delete removes the ticket with id.
//
// Returns:
//   - error: selling.ErrTicketNotFound if no ticket has the id.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "service.selling.Delete"

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Tickets().With(tx).Delete(ctx, id); err != nil {
			return mapErr(err)
		}

		after(s.changed(id))

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Statistics returns the totals for w, served from cache when fresh.
func (s *Service) Statistics(ctx context.Context, w statistics.Window) (domain.Statistics, error) {
	const op = "service.selling.Statistics"

	stats, err := s.cache.Statistics(
		ctx,
		string(w),
		s.cfg.StatisticsTTL,
		func(ctx context.Context) (domain.Statistics, error) {
			var since *time.Time
			if t, ok := w.Since(s.clock.Now()); ok {
				since = &t
			}
			return s.store.Stats().Totals(ctx, since)
		},
	)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}

// Slip renders the payment slip of the ticket with id.
//
// Returns:
//   - error: selling.ErrTicketNotFound if no ticket has the id.
func (s *Service) Slip(ctx context.Context, id string) ([]byte, domain.Ticket, error) {
	const op = "service.selling.Slip"

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	pdf, err := slip.Render(t, s.cfg.Company, s.clock.Now())
	if err != nil {
		return nil, domain.Ticket{}, fmt.Errorf("%s: %w", op, err)
	}

	return pdf, t, nil
}

// InvalidateStatistics drops every cached statistics window.
func (s *Service) InvalidateStatistics(ctx context.Context) error {
	return s.cache.InvalidateStatistics(ctx, windowKeys()...)
}

func (s *Service) changed(id string) uow.AfterCommit {
	return func(ctx context.Context) {
		if err := s.InvalidateStatistics(ctx); err != nil {
			s.logger.Warn("statistics cache invalidation failed", "error", err)
		}
		if err := s.pubsub.PublishSellChanged(ctx, id); err != nil {
			s.logger.Warn("sell change publish failed", "id", id, "error", err)
		}
	}
}

// prepare recomputes the derived fields of t and validates it.
func prepare(t domain.Ticket) (domain.Ticket, error) {
	t = ticket.Derive(t)
	t.Portal.Name = ""

	if v := ticket.Validate(t); len(v) > 0 {
		return domain.Ticket{}, &ticket.ValidationError{Violations: v}
	}

	return t, nil
}

func windowKeys() []string {
	out := make([]string, 0, len(statistics.Windows))
	for _, w := range statistics.Windows {
		out = append(out, string(w))
	}
	return out
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTicketNotFound
	case errors.Is(err, repository.ErrReferenced):
		return ErrPortalNotFound
	default:
		return err
	}
}
