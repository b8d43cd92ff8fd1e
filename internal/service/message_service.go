package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
	"github.com/vedran77/parley/internal/search"
)

type MessageService struct {
	store       repository.Store
	engine      search.Engine
	attachments *AttachmentResolver
	log         *slog.Logger
}

func NewMessageService(store repository.Store, engine search.Engine, attachments *AttachmentResolver, log *slog.Logger) *MessageService {
	return &MessageService{
		store:       store,
		engine:      engine,
		attachments: attachments,
		log:         log,
	}
}

type SendMessageInput struct {
	Content string `json:"content"`
}

// Send appends a message authored by the caller. The channel is not checked
// for existence and empty content is accepted.
func (s *MessageService) Send(ctx context.Context, channelID uuid.UUID, input SendMessageInput) (uuid.UUID, error) {
	userID, err := access.Resolve(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	msg := &domain.Message{
		ID:        uuid.New(),
		ChannelID: channelID,
		AuthorID:  userID,
		Content:   input.Content,
		CreatedAt: time.Now(),
	}

	err = s.store.Update(ctx, func(tx repository.Tx) error {
		return tx.Messages().Create(ctx, msg)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating message: %w", err)
	}

	// The message is committed; a lagging index only delays search.
	if err := s.engine.Index(ctx, *msg); err != nil {
		s.log.Error("indexing message failed",
			slog.String("message_id", msg.ID.String()),
			slog.Any("error", err),
		)
	}

	return msg.ID, nil
}

// List returns every message of the channel in creation order with its
// author resolved.
func (s *MessageService) List(ctx context.Context, channelID uuid.UUID) ([]domain.EnrichedMessage, error) {
	if _, err := access.Resolve(ctx); err != nil {
		return nil, err
	}

	var (
		msgs    []domain.Message
		records map[uuid.UUID]authorRecord
	)
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		if msgs, err = tx.Messages().ListByChannel(ctx, channelID); err != nil {
			return err
		}
		records, err = loadAuthors(ctx, tx, msgs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	authors, err := resolveAuthors(ctx, s.attachments, records)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return enrichMessages(msgs, authors), nil
}
