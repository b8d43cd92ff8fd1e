package live

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
)

// Tracker maps keys to the subscriptions that read them.
//
// Every Invalidate advances a global version and stamps each invalidated key
// with it. A subscription notes the version before it evaluates; if any key
// it read was stamped later, a write landed while it was evaluating and it
// runs again instead of waiting. Stamps are only kept while an evaluation
// that started before them is still running.
type Tracker struct {
	mu      sync.Mutex
	version uint64
	written map[Key]uint64
	// running counts in-flight evaluations by the version they started at.
	running map[uint64]int
	subs    map[Key]map[*subscription]struct{}
	log     *slog.Logger
}

type subscription struct {
	wake chan struct{}
	keys []Key
}

func (s *subscription) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func NewTracker(log *slog.Logger) *Tracker {
	return &Tracker{
		written: make(map[Key]uint64),
		running: make(map[uint64]int),
		subs:    make(map[Key]map[*subscription]struct{}),
		log:     log,
	}
}

// Invalidate marks keys as written and wakes every subscription that read
// one of them. Call it only after the write is visible to readers.
func (t *Tracker) Invalidate(keys ...Key) {
	if len(keys) == 0 {
		return
	}

	t.mu.Lock()
	t.version++
	stamp := len(t.running) > 0
	woken := make(map[*subscription]struct{})
	for _, k := range keys {
		if stamp {
			t.written[k] = t.version
		}
		for s := range t.subs[k] {
			woken[s] = struct{}{}
		}
	}
	t.mu.Unlock()

	for s := range woken {
		s.notify()
	}
}

// Subscribers reports how many live subscriptions currently depend on key.
func (t *Tracker) Subscribers(key Key) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs[key])
}

// Subscribe evaluates fn and pushes its result, then evaluates again each
// time a key read by the previous evaluation is invalidated. A result equal
// to the last one pushed is not pushed again. Re-evaluations triggered while
// one is pending coalesce. Subscribe blocks until ctx is done.
func (t *Tracker) Subscribe(ctx context.Context, fn func(ctx context.Context) (any, error), push func(value any, err error)) {
	sub := &subscription{wake: make(chan struct{}, 1)}
	defer t.drop(sub)

	var (
		last    any
		lastErr error
		pushed  bool
	)
	for {
		start := t.begin()
		keys, value, err := evaluate(ctx, fn)
		if ctx.Err() != nil {
			t.finish(start)
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			t.log.Debug("live query failed", slog.Any("error", err))
		}

		stale := t.register(sub, keys, start)

		if !pushed || !sameResult(last, lastErr, value, err) {
			push(value, err)
			last, lastErr, pushed = value, err, true
		}

		if stale {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-sub.wake:
		}
	}
}

func evaluate(ctx context.Context, fn func(ctx context.Context) (any, error)) ([]Key, any, error) {
	var value any
	keys, err := Collect(ctx, func(ctx context.Context) error {
		var err error
		value, err = fn(ctx)
		return err
	})
	return keys, value, err
}

func sameResult(last any, lastErr error, value any, err error) bool {
	if lastErr != nil || err != nil {
		return lastErr != nil && err != nil && lastErr.Error() == err.Error()
	}
	return reflect.DeepEqual(last, value)
}

func (t *Tracker) begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running[t.version]++
	return t.version
}

func (t *Tracker) finish(start uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endLocked(start)
}

// endLocked retires an evaluation that started at version start and drops
// every stamp no remaining evaluation can observe.
func (t *Tracker) endLocked(start uint64) {
	if t.running[start]--; t.running[start] <= 0 {
		delete(t.running, start)
	}
	if len(t.running) == 0 {
		clear(t.written)
		return
	}
	oldest := t.version
	for v := range t.running {
		oldest = min(oldest, v)
	}
	for k, v := range t.written {
		if v <= oldest {
			delete(t.written, k)
		}
	}
}

// register swaps sub's dependencies for keys, retires the evaluation started
// at version start and reports whether any key was written after it.
func (t *Tracker) register(sub *subscription, keys []Key, start uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.endLocked(start)

	t.unlink(sub)
	sub.keys = keys
	stale := false
	for _, k := range keys {
		set, ok := t.subs[k]
		if !ok {
			set = make(map[*subscription]struct{})
			t.subs[k] = set
		}
		set[sub] = struct{}{}
		if t.written[k] > start {
			stale = true
		}
	}
	return stale
}

func (t *Tracker) drop(sub *subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unlink(sub)
}

func (t *Tracker) unlink(sub *subscription) {
	for _, k := range sub.keys {
		set := t.subs[k]
		delete(set, sub)
		if len(set) == 0 {
			delete(t.subs, k)
		}
	}
	sub.keys = nil
}
