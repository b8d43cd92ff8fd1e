// Package search defines the full-text engine used for message search and
// ships a bluge-backed and a PostgreSQL-backed implementation.
package search

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/domain"
)

//go:generate mockgen -source=engine.go -destination=../mocks/mock_engine.go -package=mocks

// MaxResults caps every search.
const MaxResults = 20

// Query is a relevance match on message content. When ChannelID is set the
// engine only considers messages of that channel.
type Query struct {
	Text      string
	ChannelID *uuid.UUID
	Limit     int
}

// Engine returns message ids ordered by the engine's own relevance ranking.
type Engine interface {
	Index(ctx context.Context, msg domain.Message) error
	Search(ctx context.Context, q Query) ([]uuid.UUID, error)
}

// BatchIndexer is implemented by engines that keep their own index and can
// ingest many messages at once.
type BatchIndexer interface {
	IndexBatch(ctx context.Context, msgs []domain.Message) error
}

func limitOf(q Query) int {
	if q.Limit <= 0 || q.Limit > MaxResults {
		return MaxResults
	}
	return q.Limit
}
