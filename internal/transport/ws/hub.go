package ws

import (
	"context"
	"log/slog"

	"github.com/vedran77/parley/internal/live"
	"golang.org/x/time/rate"
)

// Limits bounds what a single connection may do.
type Limits struct {
	EventsPerSecond float64
	EventBurst      int
}

// Hub tracks every open connection and owns what they share: the live query
// tracker, the query catalogue and the per-connection limits.
type Hub struct {
	tracker *live.Tracker
	queries *Queries
	limits  Limits
	log     *slog.Logger

	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(tracker *live.Tracker, queries *Queries, limits Limits, log *slog.Logger) *Hub {
	return &Hub{
		tracker:    tracker,
		queries:    queries,
		limits:     limits,
		log:        log,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's main loop and blocks until ctx is done, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.log.Info("ws client connected",
				slog.String("user_id", client.userID.String()),
				slog.Int("total", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.log.Info("ws client disconnected",
					slog.String("user_id", client.userID.String()),
					slog.Int("total", len(h.clients)))
			}

		case <-ctx.Done():
			for client := range h.clients {
				client.close()
			}
			h.clients = nil
			return nil
		}
	}
}

// Register adds client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) newLimiter() *rate.Limiter {
	if h.limits.EventsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(h.limits.EventsPerSecond), max(h.limits.EventBurst, 1))
}
