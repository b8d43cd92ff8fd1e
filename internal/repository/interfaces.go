package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/domain"
)

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate key")

type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error)
	GetByName(ctx context.Context, name string) (*domain.Channel, error)
	List(ctx context.Context) ([]domain.Channel, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// GetByIDs returns the messages that exist, in the order of ids.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Message, error)
	ListByChannel(ctx context.Context, channelID uuid.UUID) ([]domain.Message, error)
	// Scan visits every message in creation order.
	Scan(ctx context.Context, fn func(domain.Message) error) error
}

type ProfileRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// Tx is the handle for one unit of work. Repositories obtained from it are
// only valid inside the function passed to Store.View or Store.Update.
type Tx interface {
	Channels() ChannelRepository
	Messages() MessageRepository
	Profiles() ProfileRepository
	Accounts() AccountRepository
}

// Store runs units of work against the document store. View runs fn against
// a single consistent read-only snapshot. Update runs fn atomically: when fn
// returns an error nothing it wrote is kept.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
}
