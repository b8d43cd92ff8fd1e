package search

import (
	"context"
	"fmt"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/domain"
)

const (
	fieldContent = "content"
	fieldChannel = "channel_id"
)

type BlugeEngine struct {
	writer *bluge.Writer
}

// OpenBluge opens (or creates) the on-disk index at path.
func OpenBluge(path string) (*BlugeEngine, error) {
	return openBluge(bluge.DefaultConfig(path))
}

// NewMemoryBluge keeps the index in memory only.
func NewMemoryBluge() (*BlugeEngine, error) {
	return openBluge(bluge.InMemoryOnlyConfig())
}

func openBluge(cfg bluge.Config) (*BlugeEngine, error) {
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	return &BlugeEngine{writer: writer}, nil
}

func (e *BlugeEngine) Close() error {
	return e.writer.Close()
}

func document(msg domain.Message) *bluge.Document {
	return bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewTextField(fieldContent, msg.Content)).
		AddField(bluge.NewKeywordField(fieldChannel, msg.ChannelID.String()))
}

func (e *BlugeEngine) Index(_ context.Context, msg domain.Message) error {
	doc := document(msg)
	if err := e.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing message %s: %w", msg.ID, err)
	}
	return nil
}

func (e *BlugeEngine) IndexBatch(_ context.Context, msgs []domain.Message) error {
	batch := bluge.NewBatch()
	for _, msg := range msgs {
		doc := document(msg)
		batch.Update(doc.ID(), doc)
	}
	if err := e.writer.Batch(batch); err != nil {
		return fmt.Errorf("indexing batch: %w", err)
	}
	return nil
}

func (e *BlugeEngine) Search(ctx context.Context, q Query) ([]uuid.UUID, error) {
	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(q.Text).SetField(fieldContent))
	if q.ChannelID != nil {
		query.AddMust(bluge.NewTermQuery(q.ChannelID.String()).SetField(fieldChannel))
	}

	reader, err := e.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening index reader: %w", err)
	}
	defer reader.Close()

	matches, err := reader.Search(ctx, bluge.NewTopNSearch(limitOf(q), query))
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	var ids []uuid.UUID
	match, err := matches.Next()
	for err == nil && match != nil {
		var id uuid.UUID
		var parseErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				id, parseErr = uuid.ParseBytes(value)
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		if parseErr != nil {
			return nil, fmt.Errorf("reading document id: %w", parseErr)
		}
		ids = append(ids, id)
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return ids, nil
}
