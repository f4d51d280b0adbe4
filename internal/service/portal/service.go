package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/repository"
	postgresrepo "github.com/sellbook/sellbook/internal/repository/postgres"
	redisrepo "github.com/sellbook/sellbook/internal/repository/redis"
	"github.com/sellbook/sellbook/internal/uow"
)

type Service struct {
	store  *postgresrepo.Store
	pubsub *redisrepo.EventsPubSub
	uow    *uow.UoW
	clock  clockwork.Clock
	logger *slog.Logger
}

func New(
	store *postgresrepo.Store,
	pubsub *redisrepo.EventsPubSub,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:  store,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
		clock:  clock,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, q domain.PortalQuery) ([]domain.Portal, domain.Meta, error) {
	const op = "service.portal.List"

	items, total, err := s.store.Portals().List(ctx, q)
	if err != nil {
		return nil, domain.Meta{}, fmt.Errorf("%s: %w", op, err)
	}

	return items, domain.NewMeta(q.Page, q.Limit, total), nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Portal, error) {
	const op = "service.portal.Get"

	p, err := s.store.Portals().Get(ctx, id)
	if err != nil {
		return domain.Portal{}, fmt.Errorf("%s: %w", op, mapErr(err))
	}

	return p, nil
}

// Create stores a portal named name.
//
// Returns:
//   - error: portal.ErrEmptyName if name is blank.
func (s *Service) Create(ctx context.Context, name string) (domain.Portal, error) {
	const op = "service.portal.Create"

	name, err := normalizeName(name)
	if err != nil {
		return domain.Portal{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.clock.Now().UTC()
	p := domain.Portal{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Portals().With(tx).Create(ctx, p); err != nil {
			return err
		}

		after(s.changed(p.ID))

		return nil
	})
	if err != nil {
		return domain.Portal{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// Rename changes the name of the portal with id.
//
// Returns:
//   - error: portal.ErrEmptyName if name is blank.
//   - error: portal.ErrPortalNotFound if no portal has the id.
func (s *Service) Rename(ctx context.Context, id, name string) (domain.Portal, error) {
	const op = "service.portal.Rename"

	name, err := normalizeName(name)
	if err != nil {
		return domain.Portal{}, fmt.Errorf("%s: %w", op, err)
	}

	var out domain.Portal

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		p, err := s.store.Portals().With(tx).Rename(ctx, domain.Portal{
			ID:        id,
			Name:      name,
			UpdatedAt: s.clock.Now().UTC(),
		})
		if err != nil {
			return mapErr(err)
		}
		out = p

		after(s.changed(id))

		return nil
	})
	if err != nil {
		return domain.Portal{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Delete removes the portal with id.
//
// Returns:
//   - error: portal.ErrPortalNotFound if no portal has the id.
//   - error: portal.ErrPortalInUse if selling records still reference it.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "service.portal.Delete"

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		if err := s.store.Portals().With(tx).Delete(ctx, id); err != nil {
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

func (s *Service) changed(id string) uow.AfterCommit {
	return func(ctx context.Context) {
		if err := s.pubsub.PublishPortalChanged(ctx, id); err != nil {
			s.logger.Warn("portal change publish failed", "id", id, "error", err)
		}
	}
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrPortalNotFound
	case errors.Is(err, repository.ErrReferenced):
		return ErrPortalInUse
	default:
		return err
	}
}
