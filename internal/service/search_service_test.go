package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/mocks"
	"github.com/vedran77/parley/internal/search"
	"go.uber.org/mock/gomock"
)

func TestSearchService_BlankQueryShortCircuits(t *testing.T) {
	// no expectations: any engine call fails the test
	engine := mocks.NewMockEngine(gomock.NewController(t))
	f := newFixture(t, engine)
	channel := uuid.New()

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := f.search.Search(as(uuid.New()), q, nil)
		require.NoError(t, err)
		require.NotNil(t, results)
		require.Empty(t, results)

		results, err = f.search.Search(as(uuid.New()), q, &channel)
		require.NoError(t, err)
		require.Empty(t, results)
	}
}

func TestSearchService_RequiresIdentity(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.search.Search(context.Background(), "hello", nil)
	require.ErrorIs(t, err, access.ErrUnauthenticated)
}

func TestSearchService_EnrichesResults(t *testing.T) {
	f := newFixture(t, nil)
	alice := f.account(t, "alice@example.com", "Alice")
	general := f.channel(t, alice, "general")
	id := f.send(t, alice, general, "the deploy is green")
	f.send(t, alice, general, "lunch?")

	results, err := f.search.Search(as(alice), "deploy", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, id, results[0].ID)
	require.Equal(t, "general", results[0].Channel)
	require.Equal(t, "Alice", results[0].Author.Name)
	require.Nil(t, results[0].Author.AvatarURL)
}

func TestSearchService_ScopeNeverLeaks(t *testing.T) {
	f := newFixture(t, nil)
	author := uuid.New()
	general := f.channel(t, author, "general")
	random := f.channel(t, author, "random")

	for i := 0; i < 10; i++ {
		f.send(t, author, general, fmt.Sprintf("release %d", i))
		f.send(t, author, random, fmt.Sprintf("release %d", i))
	}

	results, err := f.search.Search(as(author), "release", &general)
	require.NoError(t, err)
	require.Len(t, results, 10)
	for _, r := range results {
		require.Equal(t, general, r.ChannelID)
		require.Equal(t, "general", r.Channel)
	}
}

func TestSearchService_CapsAtTwenty(t *testing.T) {
	f := newFixture(t, nil)
	author := uuid.New()
	general := f.channel(t, author, "general")
	for i := 0; i < 30; i++ {
		f.send(t, author, general, fmt.Sprintf("standup %d", i))
	}

	results, err := f.search.Search(as(author), "standup", nil)
	require.NoError(t, err)
	require.Len(t, results, search.MaxResults)
}

func TestSearchService_GuardsEngineOutput(t *testing.T) {
	engine := mocks.NewMockEngine(gomock.NewController(t))
	engine.EXPECT().Index(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f := newFixture(t, engine)

	author := uuid.New()
	general := f.channel(t, author, "general")
	random := f.channel(t, author, "random")

	var returned []uuid.UUID
	for i := 0; i < 25; i++ {
		returned = append(returned, f.send(t, author, general, "x"))
	}
	leaked := f.send(t, author, random, "x")
	returned = append([]uuid.UUID{leaked}, returned...)

	engine.EXPECT().
		Search(gomock.Any(), search.Query{Text: "x", ChannelID: &general, Limit: search.MaxResults}).
		Return(returned, nil)

	results, err := f.search.Search(as(author), "  x  ", &general)
	require.NoError(t, err)
	// the cap applies to the engine output, the scope guard after it
	require.Len(t, results, search.MaxResults-1)
	for _, r := range results {
		require.Equal(t, general, r.ChannelID)
	}
}

func TestSearchService_UnknownChannelName(t *testing.T) {
	f := newFixture(t, nil)
	author := uuid.New()
	id := f.send(t, author, uuid.New(), "orphaned note")

	results, err := f.search.Search(as(author), "orphaned", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, id, results[0].ID)
	require.Equal(t, "Unknown", results[0].Channel)
	require.Equal(t, "Unknown", results[0].Author.Name)
}

func TestSearchService_Reindex(t *testing.T) {
	engine := mocks.NewMockEngine(gomock.NewController(t))
	engine.EXPECT().Index(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f := newFixture(t, engine)

	author := uuid.New()
	general := f.channel(t, author, "general")
	var sent []uuid.UUID
	for i := 0; i < reindexBatchSize+5; i++ {
		sent = append(sent, f.send(t, author, general, "archived"))
	}

	idx := mocks.NewMockBatchIndexer(gomock.NewController(t))
	var seen []uuid.UUID
	idx.EXPECT().IndexBatch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msgs []domain.Message) error {
			for _, m := range msgs {
				seen = append(seen, m.ID)
			}
			return nil
		}).Times(2)

	n, err := f.search.Reindex(context.Background(), idx)
	require.NoError(t, err)
	require.Equal(t, len(sent), n)
	require.Equal(t, sent, seen)
}

func TestSearchService_ReindexIntoBluge(t *testing.T) {
	engine := mocks.NewMockEngine(gomock.NewController(t))
	engine.EXPECT().Index(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f := newFixture(t, engine)
	author := uuid.New()
	general := f.channel(t, author, "general")
	id := f.send(t, author, general, "rebuild me")

	fresh, err := search.NewMemoryBluge()
	require.NoError(t, err)
	t.Cleanup(func() { _ = fresh.Close() })

	_, err = f.search.Reindex(context.Background(), fresh)
	require.NoError(t, err)

	found, err := fresh.Search(context.Background(), search.Query{Text: "rebuild"})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{id}, found)
}
