package live

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/parley/internal/blob"
	"github.com/vedran77/parley/internal/domain"
	"github.com/vedran77/parley/internal/search"
)

// Engine records the search scope as a dependency. Indexing may complete
// after the message commit, so it invalidates the scope again once the
// engine can see the new message.
type Engine struct {
	inner   search.Engine
	tracker *Tracker
}

func NewEngine(inner search.Engine, tracker *Tracker) *Engine {
	return &Engine{inner: inner, tracker: tracker}
}

func (e *Engine) Index(ctx context.Context, msg domain.Message) error {
	if err := e.inner.Index(ctx, msg); err != nil {
		return err
	}
	e.tracker.Invalidate(MessagesKey(msg.ChannelID), AllMessagesKey)
	return nil
}

func (e *Engine) Search(ctx context.Context, q search.Query) ([]uuid.UUID, error) {
	if q.ChannelID != nil {
		Record(ctx, MessagesKey(*q.ChannelID))
	} else {
		Record(ctx, AllMessagesKey)
	}
	return e.inner.Search(ctx, q)
}

// Blobs records every resolved ref so that a later upload of that ref,
// reported through Tracker.Invalidate(BlobKey(ref)), refreshes readers.
type Blobs struct {
	blob.Store
}

func NewBlobs(inner blob.Store) Blobs {
	return Blobs{Store: inner}
}

func (b Blobs) URL(ctx context.Context, ref string) (*string, error) {
	Record(ctx, BlobKey(ref))
	return b.Store.URL(ctx, ref)
}
