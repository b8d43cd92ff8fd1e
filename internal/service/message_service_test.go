package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/mocks"
	"go.uber.org/mock/gomock"
)

func ids(msgs []domain.EnrichedMessage) []uuid.UUID {
	out := make([]uuid.UUID, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestMessageService_RequiresIdentity(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.messages.Send(context.Background(), uuid.New(), SendMessageInput{Content: "hi"})
	require.ErrorIs(t, err, access.ErrUnauthenticated)
	_, err = f.messages.List(context.Background(), uuid.New())
	require.ErrorIs(t, err, access.ErrUnauthenticated)
}

func TestMessageService_GeneralScenario(t *testing.T) {
	f := newFixture(t, nil)
	alice := f.account(t, "alice@example.com", "")
	bob := f.account(t, "bob@example.com", "")
	f.profile(t, alice, "Alice", nil)
	f.profile(t, bob, "Bob", nil)

	general := f.channel(t, alice, "general")
	hi := f.send(t, alice, general, "hi")
	there := f.send(t, bob, general, "there")

	msgs, err := f.messages.List(as(alice), general)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{hi, there}, ids(msgs))
	require.Equal(t, "hi", msgs[0].Content)
	require.Equal(t, "Alice", msgs[0].Author.Name)
	require.Equal(t, alice, msgs[0].AuthorID)
	require.Equal(t, "there", msgs[1].Content)
	require.Equal(t, "Bob", msgs[1].Author.Name)
}

func TestMessageService_AuthorNameFallback(t *testing.T) {
	f := newFixture(t, nil)
	channel := f.channel(t, uuid.New(), "general")

	withProfile := f.account(t, "p@example.com", "Account P")
	f.profile(t, withProfile, "Profile P", nil)
	emptyProfile := f.account(t, "e@example.com", "Account E")
	f.profile(t, emptyProfile, "", nil)
	accountName := f.account(t, "n@example.com", "Account N")
	emailOnly := f.account(t, "mail@example.com", "")
	nobody := uuid.New()

	tests := []struct {
		author uuid.UUID
		want   string
	}{
		{withProfile, "Profile P"},
		{emptyProfile, "Account E"},
		{accountName, "Account N"},
		{emailOnly, "mail@example.com"},
		{nobody, "Unknown"},
	}
	for _, tt := range tests {
		f.send(t, tt.author, channel, "x")
	}

	msgs, err := f.messages.List(as(uuid.New()), channel)
	require.NoError(t, err)
	require.Len(t, msgs, len(tests))
	for i, tt := range tests {
		require.Equal(t, tt.want, msgs[i].Author.Name)
		require.Nil(t, msgs[i].Author.AvatarURL)
	}
}

func TestMessageService_ListIsCompleteAndOrdered(t *testing.T) {
	f := newFixture(t, nil)
	a, b := uuid.New(), uuid.New()
	first := f.channel(t, a, "first")
	second := f.channel(t, a, "second")

	var sentFirst, sentSecond []uuid.UUID
	for i := 0; i < 30; i++ {
		sentFirst = append(sentFirst, f.send(t, a, first, "one"))
		if i%3 == 0 {
			sentSecond = append(sentSecond, f.send(t, b, second, "two"))
		}
	}

	msgs, err := f.messages.List(as(a), first)
	require.NoError(t, err)
	require.Equal(t, sentFirst, ids(msgs))
	for i := 1; i < len(msgs); i++ {
		require.LessOrEqual(t, msgs[i-1].Seq, msgs[i].Seq)
	}

	msgs, err = f.messages.List(as(a), second)
	require.NoError(t, err)
	require.Equal(t, sentSecond, ids(msgs))
}

func TestMessageService_SendAcceptsEmptyContentAndUnknownChannel(t *testing.T) {
	f := newFixture(t, nil)
	author := uuid.New()
	nowhere := uuid.New()

	id := f.send(t, author, nowhere, "")

	msgs, err := f.messages.List(as(author), nowhere)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{id}, ids(msgs))
	require.Equal(t, "", msgs[0].Content)
}

func TestMessageService_IndexFailureDoesNotFailSend(t *testing.T) {
	engine := mocks.NewMockEngine(gomock.NewController(t))
	engine.EXPECT().Index(gomock.Any(), gomock.Any()).Return(errors.New("index down"))

	f := newFixture(t, engine)
	author := uuid.New()
	channel := uuid.New()

	id, err := f.messages.Send(as(author), channel, SendMessageInput{Content: "still stored"})
	require.NoError(t, err)

	msgs, err := f.messages.List(as(author), channel)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{id}, ids(msgs))
}

func TestMessageService_AvatarURLs(t *testing.T) {
	f := newFixture(t, nil)
	withAvatar := f.account(t, "a@example.com", "")
	missingBlob := f.account(t, "m@example.com", "")
	f.profile(t, withAvatar, "Has Avatar", ptr(t, "ref-1"))
	f.profile(t, missingBlob, "Lost Avatar", ptr(t, "ref-gone"))

	url := "http://blobs/ref-1"
	f.blobs.EXPECT().URL(gomock.Any(), "ref-1").Return(&url, nil)
	f.blobs.EXPECT().URL(gomock.Any(), "ref-gone").Return(nil, nil)

	channel := f.channel(t, withAvatar, "general")
	f.send(t, withAvatar, channel, "a")
	f.send(t, withAvatar, channel, "b")
	f.send(t, missingBlob, channel, "c")

	msgs, err := f.messages.List(as(withAvatar), channel)
	require.NoError(t, err)
	require.Equal(t, url, *msgs[0].Author.AvatarURL)
	require.Equal(t, url, *msgs[1].Author.AvatarURL)
	require.Nil(t, msgs[2].Author.AvatarURL)
}

func TestMessageService_BlobErrorFailsList(t *testing.T) {
	f := newFixture(t, nil)
	author := f.account(t, "a@example.com", "")
	f.profile(t, author, "A", ptr(t, "ref-1"))
	f.blobs.EXPECT().URL(gomock.Any(), "ref-1").Return(nil, errors.New("s3 unavailable"))

	channel := f.channel(t, author, "general")
	f.send(t, author, channel, "a")

	_, err := f.messages.List(as(author), channel)
	require.Error(t, err)
}

func ptr(t *testing.T, s string) *string {
	t.Helper()
	return &s
}
