package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
	"github.com/vedran77/parley/internal/search"
)

const reindexBatchSize = 500

type SearchService struct {
	store       repository.Store
	engine      search.Engine
	attachments *AttachmentResolver
	log         *slog.Logger
}

func NewSearchService(store repository.Store, engine search.Engine, attachments *AttachmentResolver, log *slog.Logger) *SearchService {
	return &SearchService{
		store:       store,
		engine:      engine,
		attachments: attachments,
		log:         log,
	}
}

// Search runs a full-text query over message content, optionally scoped to
// one channel, and returns at most search.MaxResults enriched matches in the
// engine's ranking order. Blank text returns nothing without querying.
func (s *SearchService) Search(ctx context.Context, text string, channelID *uuid.UUID) ([]domain.SearchResult, error) {
	if _, err := access.Resolve(ctx); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []domain.SearchResult{}, nil
	}

	ids, err := s.engine.Search(ctx, search.Query{Text: text, ChannelID: channelID, Limit: search.MaxResults})
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	if len(ids) > search.MaxResults {
		ids = ids[:search.MaxResults]
	}

	var (
		msgs     []domain.Message
		records  map[uuid.UUID]authorRecord
		channels = make(map[uuid.UUID]string)
	)
	err = s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		if msgs, err = tx.Messages().GetByIDs(ctx, ids); err != nil {
			return err
		}
		if channelID != nil {
			msgs = lo.Filter(msgs, func(m domain.Message, _ int) bool { return m.ChannelID == *channelID })
		}
		for _, m := range msgs {
			if _, seen := channels[m.ChannelID]; seen {
				continue
			}
			ch, err := tx.Channels().GetByID(ctx, m.ChannelID)
			if err != nil {
				return err
			}
			channels[m.ChannelID] = unknownName
			if ch != nil && ch.Name != "" {
				channels[m.ChannelID] = ch.Name
			}
		}
		records, err = loadAuthors(ctx, tx, msgs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading search results: %w", err)
	}

	authors, err := resolveAuthors(ctx, s.attachments, records)
	if err != nil {
		return nil, fmt.Errorf("loading search results: %w", err)
	}

	return lo.Map(enrichMessages(msgs, authors), func(m domain.EnrichedMessage, _ int) domain.SearchResult {
		return domain.SearchResult{EnrichedMessage: m, Channel: channels[m.ChannelID]}
	}), nil
}

// Reindex feeds every stored message to idx in creation order and returns
// how many were indexed.
func (s *SearchService) Reindex(ctx context.Context, idx search.BatchIndexer) (int, error) {
	var (
		batch []domain.Message
		total int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := idx.IndexBatch(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		s.log.Debug("reindexed batch", slog.Int("total", total))
		batch = nil
		return nil
	}

	err := s.store.View(ctx, func(tx repository.Tx) error {
		err := tx.Messages().Scan(ctx, func(m domain.Message) error {
			batch = append(batch, m)
			if len(batch) >= reindexBatchSize {
				return flush()
			}
			return nil
		})
		if err != nil {
			return err
		}
		return flush()
	})
	if err != nil {
		return total, fmt.Errorf("reindexing messages: %w", err)
	}

	s.log.Info("reindex complete", slog.Int("messages", total))
	return total, nil
}
