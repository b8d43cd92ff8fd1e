package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID `json:"id"`
	Seq       int64     `json:"-"`
	ChannelID uuid.UUID `json:"channel_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Author is the presentable identity of a message author. It is derived on
// every read and never persisted.
type Author struct {
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

type EnrichedMessage struct {
	Message
	Author Author `json:"author"`
}

type SearchResult struct {
	EnrichedMessage
	// Channel holds the channel name, or "Unknown" when the channel is gone.
	Channel string `json:"channel"`
}
