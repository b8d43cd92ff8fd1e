package live

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
)

// Store wraps a repository.Store so that reads are recorded on the context's
// ReadSet and committed writes invalidate the keys they touched.
type Store struct {
	inner   repository.Store
	tracker *Tracker
}

func NewStore(inner repository.Store, tracker *Tracker) *Store {
	return &Store{inner: inner, tracker: tracker}
}

func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.inner.View(ctx, func(tx repository.Tx) error {
		return fn(&trackedTx{ctx: ctx, inner: tx})
	})
}

func (s *Store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	var written *ReadSet
	err := s.inner.Update(ctx, func(tx repository.Tx) error {
		written = NewReadSet()
		return fn(&trackedTx{ctx: ctx, inner: tx, written: written})
	})
	if err != nil {
		return err
	}
	s.tracker.Invalidate(written.Keys()...)
	return nil
}

type trackedTx struct {
	ctx     context.Context
	inner   repository.Tx
	written *ReadSet
}

func (t *trackedTx) read(keys ...Key) { Record(t.ctx, keys...) }

func (t *trackedTx) write(keys ...Key) {
	if t.written != nil {
		t.written.Add(keys...)
	}
}

func (t *trackedTx) Channels() repository.ChannelRepository {
	return trackedChannels{t, t.inner.Channels()}
}

func (t *trackedTx) Messages() repository.MessageRepository {
	return trackedMessages{t, t.inner.Messages()}
}

func (t *trackedTx) Profiles() repository.ProfileRepository {
	return trackedProfiles{t, t.inner.Profiles()}
}

func (t *trackedTx) Accounts() repository.AccountRepository {
	return trackedAccounts{t, t.inner.Accounts()}
}

type trackedChannels struct {
	tx    *trackedTx
	inner repository.ChannelRepository
}

func (r trackedChannels) Create(ctx context.Context, ch *domain.Channel) error {
	if err := r.inner.Create(ctx, ch); err != nil {
		return err
	}
	r.tx.write(ChannelsKey, ChannelKey(ch.ID))
	return nil
}

func (r trackedChannels) GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error) {
	r.tx.read(ChannelKey(id))
	return r.inner.GetByID(ctx, id)
}

func (r trackedChannels) GetByName(ctx context.Context, name string) (*domain.Channel, error) {
	r.tx.read(ChannelsKey)
	return r.inner.GetByName(ctx, name)
}

func (r trackedChannels) List(ctx context.Context) ([]domain.Channel, error) {
	r.tx.read(ChannelsKey)
	return r.inner.List(ctx)
}

type trackedMessages struct {
	tx    *trackedTx
	inner repository.MessageRepository
}

func (r trackedMessages) Create(ctx context.Context, msg *domain.Message) error {
	if err := r.inner.Create(ctx, msg); err != nil {
		return err
	}
	r.tx.write(MessagesKey(msg.ChannelID), AllMessagesKey)
	return nil
}

func (r trackedMessages) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Message, error) {
	r.tx.read(AllMessagesKey)
	return r.inner.GetByIDs(ctx, ids)
}

func (r trackedMessages) ListByChannel(ctx context.Context, channelID uuid.UUID) ([]domain.Message, error) {
	r.tx.read(MessagesKey(channelID))
	return r.inner.ListByChannel(ctx, channelID)
}

func (r trackedMessages) Scan(ctx context.Context, fn func(domain.Message) error) error {
	r.tx.read(AllMessagesKey)
	return r.inner.Scan(ctx, fn)
}

type trackedProfiles struct {
	tx    *trackedTx
	inner repository.ProfileRepository
}

func (r trackedProfiles) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	r.tx.read(ProfileKey(userID))
	return r.inner.GetByUser(ctx, userID)
}

func (r trackedProfiles) Upsert(ctx context.Context, p *domain.Profile) error {
	if err := r.inner.Upsert(ctx, p); err != nil {
		return err
	}
	r.tx.write(ProfileKey(p.UserID))
	return nil
}

type trackedAccounts struct {
	tx    *trackedTx
	inner repository.AccountRepository
}

func (r trackedAccounts) Create(ctx context.Context, a *domain.Account) error {
	if err := r.inner.Create(ctx, a); err != nil {
		return err
	}
	r.tx.write(AccountKey(a.ID))
	return nil
}

func (r trackedAccounts) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.tx.read(AccountKey(id))
	return r.inner.GetByID(ctx, id)
}

func (r trackedAccounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	a, err := r.inner.GetByEmail(ctx, email)
	if a != nil {
		r.tx.read(AccountKey(a.ID))
	}
	return a, err
}
