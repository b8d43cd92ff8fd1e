package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/parley/internal/domain"
)

func newEngine(t *testing.T) *BlugeEngine {
	t.Helper()
	e, err := NewMemoryBluge()
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func msg(channelID uuid.UUID, content string) domain.Message {
	return domain.Message{ID: uuid.New(), ChannelID: channelID, AuthorID: uuid.New(), Content: content}
}

func TestBlugeEngine_MatchesContent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	ch := uuid.New()

	hit := msg(ch, "Deploy finished on staging")
	miss := msg(ch, "lunch at noon")
	require.NoError(t, e.Index(ctx, hit))
	require.NoError(t, e.Index(ctx, miss))

	ids, err := e.Search(ctx, Query{Text: "deploy"})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{hit.ID}, ids)
}

func TestBlugeEngine_ScopeFiltersChannels(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	general, random := uuid.New(), uuid.New()

	inGeneral := msg(general, "release notes are out")
	inRandom := msg(random, "release party tonight")
	require.NoError(t, e.IndexBatch(ctx, []domain.Message{inGeneral, inRandom}))

	ids, err := e.Search(ctx, Query{Text: "release", ChannelID: &general})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{inGeneral.ID}, ids)

	ids, err = e.Search(ctx, Query{Text: "release"})
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{inGeneral.ID, inRandom.ID}, ids)
}

func TestBlugeEngine_CapsResults(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	ch := uuid.New()

	var batch []domain.Message
	for i := 0; i < 30; i++ {
		batch = append(batch, msg(ch, fmt.Sprintf("standup note %d", i)))
	}
	require.NoError(t, e.IndexBatch(ctx, batch))

	ids, err := e.Search(ctx, Query{Text: "standup"})
	require.NoError(t, err)
	require.Len(t, ids, MaxResults)

	ids, err = e.Search(ctx, Query{Text: "standup", Limit: 5})
	require.NoError(t, err)
	require.Len(t, ids, 5)
}

func TestBlugeEngine_ReindexIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	m := msg(uuid.New(), "hello parley")

	require.NoError(t, e.Index(ctx, m))
	require.NoError(t, e.IndexBatch(ctx, []domain.Message{m}))

	ids, err := e.Search(ctx, Query{Text: "parley"})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{m.ID}, ids)
}
