package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/service"
)

var (
	ErrUnknownQuery = errors.New("unknown query")
	ErrInvalidArgs  = errors.New("invalid query arguments")
)

// QueryFunc evaluates one live query. It must read through the tracked store
// using the context it is given so its dependencies are recorded.
type QueryFunc func(ctx context.Context) (any, error)

// Queries exposes the read operations clients may subscribe to.
type Queries struct {
	Channels *service.ChannelService
	Messages *service.MessageService
	Search   *service.SearchService
	Profiles *service.ProfileService
}

type channelArgs struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

type searchArgs struct {
	Query     string     `json:"query"`
	ChannelID *uuid.UUID `json:"channel_id"`
}

// Build resolves a query name and its JSON arguments into a QueryFunc.
func (q *Queries) Build(name string, args json.RawMessage) (QueryFunc, error) {
	switch name {
	case "channels.list":
		return func(ctx context.Context) (any, error) {
			return q.Channels.List(ctx)
		}, nil

	case "channels.get":
		a, err := decodeArgs[channelArgs](args)
		if err != nil {
			return nil, err
		}
		if a.ChannelID == uuid.Nil {
			return nil, fmt.Errorf("%w: channel_id is required", ErrInvalidArgs)
		}
		return func(ctx context.Context) (any, error) {
			return q.Channels.Get(ctx, a.ChannelID)
		}, nil

	case "messages.list":
		a, err := decodeArgs[channelArgs](args)
		if err != nil {
			return nil, err
		}
		if a.ChannelID == uuid.Nil {
			return nil, fmt.Errorf("%w: channel_id is required", ErrInvalidArgs)
		}
		return func(ctx context.Context) (any, error) {
			return q.Messages.List(ctx, a.ChannelID)
		}, nil

	case "messages.search":
		a, err := decodeArgs[searchArgs](args)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (any, error) {
			return q.Search.Search(ctx, a.Query, a.ChannelID)
		}, nil

	case "profiles.get":
		return func(ctx context.Context) (any, error) {
			return q.Profiles.Get(ctx)
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
}

func decodeArgs[T any](raw json.RawMessage) (T, error) {
	var args T
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return args, nil
}
