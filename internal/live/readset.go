package live

import (
	"context"
	"sort"
	"sync"
)

// ReadSet collects the keys read during one evaluation. Safe for concurrent
// use since a query may fan out.
type ReadSet struct {
	mu   sync.Mutex
	keys map[Key]struct{}
}

func NewReadSet() *ReadSet {
	return &ReadSet{keys: make(map[Key]struct{})}
}

func (rs *ReadSet) Add(keys ...Key) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for _, k := range keys {
		rs.keys[k] = struct{}{}
	}
}

// Keys returns the recorded keys in sorted order.
func (rs *ReadSet) Keys() []Key {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	keys := make([]Key, 0, len(rs.keys))
	for k := range rs.keys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

type readSetKey struct{}

func WithReadSet(ctx context.Context, rs *ReadSet) context.Context {
	return context.WithValue(ctx, readSetKey{}, rs)
}

// Record adds keys to the ReadSet carried by ctx, if any.
func Record(ctx context.Context, keys ...Key) {
	if rs, ok := ctx.Value(readSetKey{}).(*ReadSet); ok {
		rs.Add(keys...)
	}
}

// Collect runs fn with a fresh ReadSet and returns what it read.
func Collect(ctx context.Context, fn func(ctx context.Context) error) ([]Key, error) {
	rs := NewReadSet()
	err := fn(WithReadSet(ctx, rs))
	return rs.Keys(), err
}
