package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/repository"
)

var ErrChannelNameTaken = errors.New("channel name already exists")

type ChannelService struct {
	store repository.Store
	log   *slog.Logger
}

func NewChannelService(store repository.Store, log *slog.Logger) *ChannelService {
	return &ChannelService{store: store, log: log}
}

type CreateChannelInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// List returns every channel in creation order.
func (s *ChannelService) List(ctx context.Context) ([]domain.Channel, error) {
	if _, err := access.Resolve(ctx); err != nil {
		return nil, err
	}

	var channels []domain.Channel
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		channels, err = tx.Channels().List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	if channels == nil {
		channels = []domain.Channel{}
	}
	return channels, nil
}

// Create adds a channel owned by the caller. Names are unique across the
// whole deployment and compared exactly.
func (s *ChannelService) Create(ctx context.Context, input CreateChannelInput) (uuid.UUID, error) {
	userID, err := access.Resolve(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var desc *string
	if input.Description != nil && *input.Description != "" {
		desc = input.Description
	}

	ch := &domain.Channel{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: desc,
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
	}

	err = s.store.Update(ctx, func(tx repository.Tx) error {
		existing, err := tx.Channels().GetByName(ctx, input.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrChannelNameTaken
		}
		return tx.Channels().Create(ctx, ch)
	})
	switch {
	case errors.Is(err, ErrChannelNameTaken), errors.Is(err, repository.ErrDuplicate):
		return uuid.Nil, ErrChannelNameTaken
	case err != nil:
		return uuid.Nil, fmt.Errorf("creating channel: %w", err)
	}

	s.log.Info("channel created", slog.String("channel_id", ch.ID.String()), slog.String("name", ch.Name))
	return ch.ID, nil
}

// Get returns nil without an error when the channel does not exist.
func (s *ChannelService) Get(ctx context.Context, channelID uuid.UUID) (*domain.Channel, error) {
	if _, err := access.Resolve(ctx); err != nil {
		return nil, err
	}

	var ch *domain.Channel
	err := s.store.View(ctx, func(tx repository.Tx) error {
		var err error
		ch, err = tx.Channels().GetByID(ctx, channelID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting channel: %w", err)
	}
	return ch, nil
}
