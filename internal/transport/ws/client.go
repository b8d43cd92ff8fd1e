package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/access"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait        = 10 * time.Second
	pingInterval     = 30 * time.Second
	maxMessageSize   = 4096
	sendBufSize      = 256
	maxSubscriptions = 64
)

// Client represents a single WebSocket connection and its live queries.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	userID  uuid.UUID
	limiter *rate.Limiter
	log     *slog.Logger

	// expiresAt is the access token's expiry; the connection ends there.
	expiresAt time.Time

	// ctx carries the caller's identity and ends when the client closes,
	// which stops every subscription.
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	// subscriptions maps client-chosen ids to their running queries.
	subscriptions map[string]*liveQuery
	mu            sync.Mutex

	send chan []byte
}

type liveQuery struct {
	cancel context.CancelFunc
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, expiresAt time.Time) *Client {
	log := hub.log.With(slog.String("user_id", userID.String()))
	ctx, cancel := context.WithCancel(access.WithIdentity(context.Background(), userID))
	return &Client{
		hub:           hub,
		conn:          conn,
		userID:        userID,
		expiresAt:     expiresAt,
		limiter:       hub.newLimiter(),
		log:           log,
		ctx:           ctx,
		cancel:        cancel,
		subscriptions: make(map[string]*liveQuery),
		send:          make(chan []byte, sendBufSize),
	}
}

func (c *Client) close() {
	c.once.Do(c.cancel)
}

// ReadPump reads events until the connection fails or the client closes.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		var event Event
		err := wsjson.Read(c.ctx, c.conn, &event)
		if err != nil {
			switch {
			case c.ctx.Err() != nil:
			case websocket.CloseStatus(err) != -1:
				c.log.Debug("ws client closed connection")
			default:
				c.log.Warn("ws read failed", slog.Any("error", err))
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendError("RATE_LIMITED", "too many events")
			continue
		}
		c.handleEvent(&event)
	}
}

// WritePump writes queued events and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	expiry := time.NewTimer(time.Until(c.expiresAt))
	defer func() {
		ticker.Stop()
		expiry.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				if c.ctx.Err() == nil {
					c.log.Warn("ws write failed", slog.Any("error", err))
				}
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				if c.ctx.Err() == nil {
					c.log.Warn("ws ping failed", slog.Any("error", err))
				}
				return
			}

		case <-expiry.C:
			c.log.Info("ws token expired")
			c.conn.Close(websocket.StatusPolicyViolation, "token expired")
			return

		case <-c.ctx.Done():
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeQuerySubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ID == "" {
			c.sendError("INVALID_PAYLOAD", "invalid query.subscribe payload")
			return
		}
		c.subscribe(p)

	case EventTypeQueryUnsubscribe:
		var p UnsubscribePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid query.unsubscribe payload")
			return
		}
		c.unsubscribe(p.ID)

	case EventTypePing:
		c.trySend(EventTypePong, nil)

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

// subscribe starts a live query under p.ID, replacing any query already
// registered under that id.
func (c *Client) subscribe(p SubscribePayload) {
	fn, err := c.hub.queries.Build(p.Query, p.Args)
	if err != nil {
		c.queue(c.ctx, EventTypeQueryError, c.queryError(p.ID, err))
		return
	}

	c.mu.Lock()
	prev, replacing := c.subscriptions[p.ID]
	if !replacing && len(c.subscriptions) >= maxSubscriptions {
		c.mu.Unlock()
		c.queue(c.ctx, EventTypeQueryError, QueryErrorPayload{
			ID: p.ID, Code: "TOO_MANY_SUBSCRIPTIONS", Message: "subscription limit reached",
		})
		return
	}
	if replacing {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(c.ctx)
	q := &liveQuery{cancel: cancel}
	c.subscriptions[p.ID] = q
	c.mu.Unlock()

	c.log.Debug("ws query subscribed", slog.String("id", p.ID), slog.String("query", p.Query))

	go c.hub.tracker.Subscribe(ctx, fn, func(value any, err error) {
		var (
			data []byte
			ok   bool
		)
		if err != nil {
			data, ok = c.encode(EventTypeQueryError, c.queryError(p.ID, err))
		} else {
			data, ok = c.encode(EventTypeQueryResult, QueryResultPayload{ID: p.ID, Value: value})
		}
		if ok {
			c.deliver(ctx, p.ID, q, data)
		}
	})
}

// deliver queues a push of q unless q was replaced or unsubscribed. mu is
// held while queueing so a replaced query can never push after its
// replacement has.
func (c *Client) deliver(ctx context.Context, id string, q *liveQuery, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil || c.subscriptions[id] != q {
		return
	}
	select {
	case c.send <- data:
	case <-ctx.Done():
	}
}

func (c *Client) unsubscribe(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q, ok := c.subscriptions[id]; ok {
		q.cancel()
		delete(c.subscriptions, id)
	}
}

func (c *Client) queryError(id string, err error) QueryErrorPayload {
	switch {
	case errors.Is(err, ErrUnknownQuery):
		return QueryErrorPayload{ID: id, Code: "UNKNOWN_QUERY", Message: err.Error()}
	case errors.Is(err, ErrInvalidArgs):
		return QueryErrorPayload{ID: id, Code: "INVALID_ARGS", Message: err.Error()}
	case errors.Is(err, access.ErrUnauthenticated):
		return QueryErrorPayload{ID: id, Code: "UNAUTHORIZED", Message: "Sign in to continue"}
	}
	c.log.Error("live query failed", slog.String("id", id), slog.Any("error", err))
	return QueryErrorPayload{ID: id, Code: "INTERNAL", Message: "Something went wrong"}
}

// queue waits for room in the send buffer. Replies are not dropped; a client
// that stops reading is eventually cut off by the write timeout.
func (c *Client) queue(ctx context.Context, eventType string, payload any) {
	data, ok := c.encode(eventType, payload)
	if !ok || ctx.Err() != nil {
		return
	}
	select {
	case c.send <- data:
	case <-ctx.Done():
	}
}

// trySend drops the event when the buffer is full.
func (c *Client) trySend(eventType string, payload any) {
	data, ok := c.encode(eventType, payload)
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	c.trySend(EventTypeError, ErrorPayload{Code: code, Message: message})
}

func (c *Client) encode(eventType string, payload any) ([]byte, bool) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		c.log.Error("ws marshal failed", slog.String("type", eventType), slog.Any("error", err))
		return nil, false
	}
	data, err := json.Marshal(evt)
	if err != nil {
		c.log.Error("ws marshal failed", slog.String("type", eventType), slog.Any("error", err))
		return nil, false
	}
	return data, true
}
