// Package memory is an in-process implementation of repository.Store used
// for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
)

var errReadOnly = errors.New("memory store: write inside a read-only view")

// Store keeps every table in maps guarded by one RWMutex. Update holds the
// write lock for the whole unit of work, so units are serializable.
type Store struct {
	mu sync.RWMutex

	seq int64

	channels       []domain.Channel
	channelsByID   map[uuid.UUID]int
	channelsByName map[string]int

	messages          []domain.Message
	messagesByID      map[uuid.UUID]int
	messagesByChannel map[uuid.UUID][]int

	profiles map[uuid.UUID]domain.Profile

	accounts        map[uuid.UUID]domain.Account
	accountsByEmail map[string]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		channelsByID:      make(map[uuid.UUID]int),
		channelsByName:    make(map[string]int),
		messagesByID:      make(map[uuid.UUID]int),
		messagesByChannel: make(map[uuid.UUID][]int),
		profiles:          make(map[uuid.UUID]domain.Profile),
		accounts:          make(map[uuid.UUID]domain.Account),
		accountsByEmail:   make(map[string]uuid.UUID),
	}
}

func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memTx{s: s})
}

func (s *Store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s, writable: true}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

type memTx struct {
	s        *Store
	writable bool
	undo     []func()
}

func (t *memTx) Channels() repository.ChannelRepository { return channelRepo{t} }
func (t *memTx) Messages() repository.MessageRepository { return messageRepo{t} }
func (t *memTx) Profiles() repository.ProfileRepository { return profileRepo{t} }
func (t *memTx) Accounts() repository.AccountRepository { return accountRepo{t} }

func (t *memTx) write(undo func()) error {
	if !t.writable {
		return errReadOnly
	}
	t.undo = append(t.undo, undo)
	return nil
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) nextSeq() int64 {
	t.s.seq++
	return t.s.seq
}

type channelRepo struct{ tx *memTx }

func (r channelRepo) Create(_ context.Context, ch *domain.Channel) error {
	s := r.tx.s
	if _, taken := s.channelsByName[ch.Name]; taken {
		return repository.ErrDuplicate
	}
	if _, taken := s.channelsByID[ch.ID]; taken {
		return repository.ErrDuplicate
	}
	err := r.tx.write(func() {
		last := len(s.channels) - 1
		delete(s.channelsByID, s.channels[last].ID)
		delete(s.channelsByName, s.channels[last].Name)
		s.channels = s.channels[:last]
	})
	if err != nil {
		return err
	}

	ch.Seq = r.tx.nextSeq()
	s.channels = append(s.channels, *ch)
	s.channelsByID[ch.ID] = len(s.channels) - 1
	s.channelsByName[ch.Name] = len(s.channels) - 1
	return nil
}

func (r channelRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Channel, error) {
	i, ok := r.tx.s.channelsByID[id]
	if !ok {
		return nil, nil
	}
	ch := r.tx.s.channels[i]
	return &ch, nil
}

func (r channelRepo) GetByName(_ context.Context, name string) (*domain.Channel, error) {
	i, ok := r.tx.s.channelsByName[name]
	if !ok {
		return nil, nil
	}
	ch := r.tx.s.channels[i]
	return &ch, nil
}

func (r channelRepo) List(_ context.Context) ([]domain.Channel, error) {
	channels := make([]domain.Channel, len(r.tx.s.channels))
	copy(channels, r.tx.s.channels)
	return channels, nil
}

type messageRepo struct{ tx *memTx }

func (r messageRepo) Create(_ context.Context, msg *domain.Message) error {
	s := r.tx.s
	if _, taken := s.messagesByID[msg.ID]; taken {
		return repository.ErrDuplicate
	}
	err := r.tx.write(func() {
		last := len(s.messages) - 1
		m := s.messages[last]
		delete(s.messagesByID, m.ID)
		idx := s.messagesByChannel[m.ChannelID]
		s.messagesByChannel[m.ChannelID] = idx[:len(idx)-1]
		s.messages = s.messages[:last]
	})
	if err != nil {
		return err
	}

	msg.Seq = r.tx.nextSeq()
	s.messages = append(s.messages, *msg)
	i := len(s.messages) - 1
	s.messagesByID[msg.ID] = i
	s.messagesByChannel[msg.ChannelID] = append(s.messagesByChannel[msg.ChannelID], i)
	return nil
}

func (r messageRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		if i, ok := r.tx.s.messagesByID[id]; ok {
			messages = append(messages, r.tx.s.messages[i])
		}
	}
	return messages, nil
}

func (r messageRepo) ListByChannel(_ context.Context, channelID uuid.UUID) ([]domain.Message, error) {
	idx := r.tx.s.messagesByChannel[channelID]
	messages := make([]domain.Message, 0, len(idx))
	for _, i := range idx {
		messages = append(messages, r.tx.s.messages[i])
	}
	return messages, nil
}

func (r messageRepo) Scan(ctx context.Context, fn func(domain.Message) error) error {
	for _, msg := range r.tx.s.messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
	return nil
}

type profileRepo struct{ tx *memTx }

func (r profileRepo) GetByUser(_ context.Context, userID uuid.UUID) (*domain.Profile, error) {
	p, ok := r.tx.s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r profileRepo) Upsert(_ context.Context, p *domain.Profile) error {
	s := r.tx.s
	prev, existed := s.profiles[p.UserID]
	err := r.tx.write(func() {
		if existed {
			s.profiles[p.UserID] = prev
		} else {
			delete(s.profiles, p.UserID)
		}
	})
	if err != nil {
		return err
	}
	s.profiles[p.UserID] = *p
	return nil
}

type accountRepo struct{ tx *memTx }

func (r accountRepo) Create(_ context.Context, a *domain.Account) error {
	s := r.tx.s
	if _, taken := s.accountsByEmail[a.Email]; taken {
		return repository.ErrDuplicate
	}
	if _, taken := s.accounts[a.ID]; taken {
		return repository.ErrDuplicate
	}
	err := r.tx.write(func() {
		delete(s.accounts, a.ID)
		delete(s.accountsByEmail, a.Email)
	})
	if err != nil {
		return err
	}
	s.accounts[a.ID] = *a
	s.accountsByEmail[a.Email] = a.ID
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	a, ok := r.tx.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r accountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	id, ok := r.tx.s.accountsByEmail[email]
	if !ok {
		return nil, nil
	}
	a := r.tx.s.accounts[id]
	return &a, nil
}
