package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/blob"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/mocks"
	"github.com/vedran77/parley/internal/repository"
	"github.com/vedran77/parley/internal/repository/memory"
	"github.com/vedran77/parley/internal/search"
	"go.uber.org/mock/gomock"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	store    *memory.Store
	blobs    *mocks.MockStore
	channels *ChannelService
	messages *MessageService
	search   *SearchService
	profiles *ProfileService
}

func newFixture(t *testing.T, engine search.Engine) *fixture {
	t.Helper()
	if engine == nil {
		e, err := search.NewMemoryBluge()
		require.NoError(t, err)
		t.Cleanup(func() { _ = e.Close() })
		engine = e
	}

	store := memory.NewStore()
	blobs := mocks.NewMockStore(gomock.NewController(t))
	attachments := NewAttachmentResolver(blobs)

	return &fixture{
		store:    store,
		blobs:    blobs,
		channels: NewChannelService(store, discard),
		messages: NewMessageService(store, engine, attachments, discard),
		search:   NewSearchService(store, engine, attachments, discard),
		profiles: NewProfileService(store, blobs, attachments, discard),
	}
}

func as(id uuid.UUID) context.Context {
	return access.WithIdentity(context.Background(), id)
}

func (f *fixture) account(t *testing.T, email, name string) uuid.UUID {
	t.Helper()
	a := &domain.Account{ID: uuid.New(), Email: email, Name: name, CreatedAt: time.Now()}
	require.NoError(t, f.store.Update(context.Background(), func(tx repository.Tx) error {
		return tx.Accounts().Create(context.Background(), a)
	}))
	return a.ID
}

func (f *fixture) profile(t *testing.T, userID uuid.UUID, displayName string, avatarRef *string) {
	t.Helper()
	p := &domain.Profile{UserID: userID, DisplayName: displayName, AvatarRef: avatarRef, UpdatedAt: time.Now()}
	require.NoError(t, f.store.Update(context.Background(), func(tx repository.Tx) error {
		return tx.Profiles().Upsert(context.Background(), p)
	}))
}

func (f *fixture) channel(t *testing.T, owner uuid.UUID, name string) uuid.UUID {
	t.Helper()
	id, err := f.channels.Create(as(owner), CreateChannelInput{Name: name})
	require.NoError(t, err)
	return id
}

func (f *fixture) send(t *testing.T, author, channelID uuid.UUID, content string) uuid.UUID {
	t.Helper()
	id, err := f.messages.Send(as(author), channelID, SendMessageInput{Content: content})
	require.NoError(t, err)
	return id
}

// knownBlobs is a blob.Store stand-in that knows a fixed set of refs.
type knownBlobs map[string]string

func (k knownBlobs) IssueUploadTarget(context.Context) (blob.UploadTarget, error) {
	return blob.UploadTarget{}, nil
}

func (k knownBlobs) URL(_ context.Context, ref string) (*string, error) {
	if u, ok := k[ref]; ok {
		return &u, nil
	}
	return nil, nil
}
