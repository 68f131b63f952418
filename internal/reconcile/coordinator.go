package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/focusflow/internal/metrics"
)

var (
	ErrNotFound = errors.New("item not found")
	ErrClosed   = errors.New("coordinator closed")
)

type EventKind int

const (
	// EventSynced: a local edit was accepted by the server.
	EventSynced EventKind = iota
	// EventReverted: the server rejected an edit and the item was rolled back.
	EventReverted
	// EventRemoved: a delete was confirmed.
	EventRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventSynced:
		return "synced"
	case EventReverted:
		return "reverted"
	case EventRemoved:
		return "removed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event reports the outcome of an optimistic write.
type Event struct {
	Kind   EventKind
	Entity string
	ID     string
	Err    error
}

// PersistFunc writes v and returns the server's copy. A zero-id result means
// the server echoed nothing and the local value is kept.
type PersistFunc[T any] func(ctx context.Context, v T) (T, error)

type Options[T any] struct {
	// Entity names the collection in logs, metrics and events, e.g. "goal".
	Entity   string
	Debounce time.Duration
	// Clone deep-copies an item. Items containing slices must supply one.
	Clone   func(T) T
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	OnEvent func(Event)

	// Renumber, if set, stores an item's new position after Reorder.
	Renumber func(item *T, index int)
}

// Coordinator keeps an ordered collection with optimistic local edits. Every
// edit is applied immediately; persistence is debounced (Update) or eager
// (Apply). A failed write rolls the item back to its last confirmed value.
type Coordinator[T any] struct {
	entity   string
	idOf     func(T) string
	clone    func(T) T
	renumber func(*T, int)
	deb      *Debouncer
	log      *zap.Logger
	metrics  *metrics.Metrics
	onEvent  func(Event)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	items     []T
	confirmed map[string]T
	version   map[string]uint64
	writeLock map[string]*sync.Mutex
	closed    bool
}

func New[T any](idOf func(T) string, opts Options[T]) *Coordinator[T] {
	if opts.Clone == nil {
		opts.Clone = func(v T) T { return v }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 400 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator[T]{
		entity:    opts.Entity,
		idOf:      idOf,
		clone:     opts.Clone,
		renumber:  opts.Renumber,
		deb:       NewDebouncer(opts.Debounce),
		log:       opts.Logger.With(zap.String("entity", opts.Entity)),
		metrics:   opts.Metrics,
		onEvent:   opts.OnEvent,
		ctx:       ctx,
		cancel:    cancel,
		confirmed: make(map[string]T),
		version:   make(map[string]uint64),
		writeLock: make(map[string]*sync.Mutex),
	}
}

// Replace installs a freshly fetched collection. Pending edits for ids that
// are still present keep their local value.
func (c *Coordinator[T]) Replace(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	local := make(map[string]T, len(c.confirmed))
	for id := range c.confirmed {
		if i := c.indexOf(id); i >= 0 {
			local[id] = c.items[i]
		}
	}

	c.items = make([]T, 0, len(items))
	for _, it := range items {
		id := c.idOf(it)
		if v, ok := local[id]; ok {
			c.confirmed[id] = c.clone(it)
			c.items = append(c.items, v)
			continue
		}
		c.items = append(c.items, c.clone(it))
	}
	for id := range c.confirmed {
		if c.indexOf(id) < 0 {
			delete(c.confirmed, id)
		}
	}
}

// Items returns a copy of the collection in its current order.
func (c *Coordinator[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = c.clone(it)
	}
	return out
}

func (c *Coordinator[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

// Dirty reports whether id has a local edit the server has not confirmed.
func (c *Coordinator[T]) Dirty(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.confirmed[id]
	return ok
}

// Insert appends a server-confirmed item. Creates are not optimistic.
func (c *Coordinator[T]) Insert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, c.clone(item))
}

// Confirm applies a change the server has already accepted, such as a
// created child record, to the local item and to its rollback snapshot so a
// later revert does not undo it.
func (c *Coordinator[T]) Confirm(id string, fn func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", c.entity, id, ErrNotFound)
	}
	next := c.clone(c.items[i])
	fn(&next)
	c.items[i] = next
	if snap, ok := c.confirmed[id]; ok {
		snap = c.clone(snap)
		fn(&snap)
		c.confirmed[id] = snap
	}
	return nil
}

// Update applies mutate locally and schedules a debounced persist of the
// final value. Rapid edits to one id produce a single write.
func (c *Coordinator[T]) Update(id string, mutate func(*T), persist PersistFunc[T]) error {
	if err := c.mutate(id, mutate); err != nil {
		return err
	}
	c.deb.Trigger(id, func() { _ = c.sync(id, persist) })
	return nil
}

// Apply applies mutate locally and persists at once, superseding any pending
// debounced write for the same id. persist must send the whole item. It
// blocks until the server answers.
func (c *Coordinator[T]) Apply(id string, mutate func(*T), persist PersistFunc[T]) error {
	if err := c.mutate(id, mutate); err != nil {
		return err
	}
	c.deb.Cancel(id)
	return c.sync(id, persist)
}

// ApplyPart is Apply for writes that send only part of the item, such as one
// child record. A pending debounced write for id is sent first, so the part
// write neither drops it nor rolls it back on failure.
func (c *Coordinator[T]) ApplyPart(id string, mutate func(*T), persist PersistFunc[T]) error {
	c.deb.FlushKey(id)
	if err := c.mutate(id, mutate); err != nil {
		return err
	}
	return c.sync(id, persist)
}

func (c *Coordinator[T]) mutate(id string, mutate func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	i := c.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%s %s: %w", c.entity, id, ErrNotFound)
	}
	if _, ok := c.confirmed[id]; !ok {
		c.confirmed[id] = c.clone(c.items[i])
	}
	next := c.clone(c.items[i])
	mutate(&next)
	c.items[i] = next
	c.version[id]++
	return nil
}

func (c *Coordinator[T]) lockFor(id string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.writeLock[id]
	if !ok {
		l = &sync.Mutex{}
		c.writeLock[id] = l
	}
	return l
}

// sync sends the current local value of id. Writes for the same id are
// serialized so an older response can never land after a newer one.
func (c *Coordinator[T]) sync(id string, persist PersistFunc[T]) error {
	wl := c.lockFor(id)
	wl.Lock()
	defer wl.Unlock()

	c.mu.Lock()
	i := c.indexOf(id)
	if c.closed || i < 0 {
		delete(c.confirmed, id)
		c.mu.Unlock()
		return nil
	}
	value := c.clone(c.items[i])
	ver := c.version[id]
	ctx := c.ctx
	c.mu.Unlock()

	saved, err := persist(ctx, value)

	c.mu.Lock()
	if c.closed || errors.Is(err, context.Canceled) {
		c.mu.Unlock()
		return err
	}
	i = c.indexOf(id)
	latest := c.version[id] == ver

	if err != nil {
		reverted := false
		if latest && i >= 0 {
			if snap, ok := c.confirmed[id]; ok {
				c.items[i] = snap
				reverted = true
			}
			delete(c.confirmed, id)
		}
		c.mu.Unlock()

		c.log.Warn("write failed", zap.String("id", id), zap.Bool("reverted", reverted), zap.Error(err))
		if reverted {
			c.metrics.RecordSync(c.entity, "reverted")
			c.emit(Event{Kind: EventReverted, Entity: c.entity, ID: id, Err: err})
		}
		return err
	}

	if c.idOf(saved) == "" {
		saved = value
	}
	if i >= 0 {
		if latest {
			c.items[i] = c.clone(saved)
			delete(c.confirmed, id)
		} else {
			// A newer edit is still pending; the server copy becomes its rollback point.
			c.confirmed[id] = c.clone(saved)
		}
	}
	c.mu.Unlock()

	c.metrics.RecordSync(c.entity, "synced")
	c.emit(Event{Kind: EventSynced, Entity: c.entity, ID: id})
	return nil
}

// Remove deletes id locally at once, then on the server. On failure the item
// is restored at its old position.
func (c *Coordinator[T]) Remove(id string, del func(ctx context.Context, id string) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%s %s: %w", c.entity, id, ErrNotFound)
	}
	removed := c.items[i]
	if snap, ok := c.confirmed[id]; ok {
		removed = snap
	}
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	delete(c.confirmed, id)
	delete(c.version, id)
	ctx := c.ctx
	c.mu.Unlock()
	c.deb.Cancel(id)

	if err := del(ctx, id); err != nil {
		c.mu.Lock()
		if !c.closed {
			at := i
			if at > len(c.items) {
				at = len(c.items)
			}
			c.items = append(c.items[:at:at], append([]T{removed}, c.items[at:]...)...)
		}
		c.mu.Unlock()

		c.log.Warn("delete failed", zap.String("id", id), zap.Error(err))
		c.metrics.RecordSync(c.entity, "reverted")
		c.emit(Event{Kind: EventReverted, Entity: c.entity, ID: id, Err: err})
		return err
	}

	c.emit(Event{Kind: EventRemoved, Entity: c.entity, ID: id})
	return nil
}

// Reorder moves items into the order of ids (unknown ids are ignored, items
// not listed keep their relative order at the end) and persists it eagerly.
func (c *Coordinator[T]) Reorder(ids []string, persist func(ctx context.Context, ids []string) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := make(map[string]int, len(c.items))
	before := make(map[string]T, len(c.items))
	vers := make(map[string]uint64, len(c.items))
	for n, it := range c.items {
		id := c.idOf(it)
		prev[id] = n
		before[id] = it
		vers[id] = c.version[id]
	}
	pos := make(map[string]int, len(ids))
	for n, id := range ids {
		pos[id] = n
	}
	var listed, rest []T
	listed = make([]T, 0, len(ids))
	for _, it := range c.items {
		if _, ok := pos[c.idOf(it)]; ok {
			listed = append(listed, it)
		} else {
			rest = append(rest, it)
		}
	}
	slices.SortStableFunc(listed, func(a, b T) int {
		return pos[c.idOf(a)] - pos[c.idOf(b)]
	})
	if c.renumber != nil {
		for n := range listed {
			listed[n] = c.clone(listed[n])
			c.renumber(&listed[n], n)
		}
	}
	c.items = append(listed, rest...)
	ctx := c.ctx
	c.mu.Unlock()

	if err := persist(ctx, ids); err != nil {
		c.mu.Lock()
		if !c.closed {
			c.restoreOrder(prev, before, vers)
		}
		c.mu.Unlock()
		c.log.Warn("reorder failed", zap.Error(err))
		c.metrics.RecordSync(c.entity, "reverted")
		c.emit(Event{Kind: EventReverted, Entity: c.entity, Err: err})
		return err
	}
	return nil
}

// restoreOrder puts items back in their pre-reorder positions. Items inserted
// since go last. Items untouched since get their old value back, which undoes
// Renumber; edited items keep the edit. Callers hold c.mu.
func (c *Coordinator[T]) restoreOrder(prev map[string]int, before map[string]T, vers map[string]uint64) {
	items := make([]T, len(c.items))
	for n, it := range c.items {
		id := c.idOf(it)
		if old, ok := before[id]; ok && c.version[id] == vers[id] {
			it = old
		}
		items[n] = it
	}
	slices.SortStableFunc(items, func(a, b T) int {
		pa, oka := prev[c.idOf(a)]
		pb, okb := prev[c.idOf(b)]
		switch {
		case oka && okb:
			return pa - pb
		case oka:
			return -1
		case okb:
			return 1
		}
		return 0
	})
	c.items = items
}

// Flush sends every pending debounced write now and waits for them.
func (c *Coordinator[T]) Flush() {
	c.deb.Flush()
}

// Drain sends every pending write and closes the coordinator. If ctx ends
// first, in-flight writes are cancelled, the remaining edits are dropped and
// ctx's error is returned.
func (c *Coordinator[T]) Drain(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		c.Close()
		return err
	}
	stop := context.AfterFunc(ctx, c.Close)
	c.deb.Flush()
	if !stop() {
		return ctx.Err()
	}
	c.Close()
	return nil
}

// Close drops pending writes, cancels in-flight requests and stops events.
// Call Flush first to keep pending edits.
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.deb.Close()
}

func (c *Coordinator[T]) emit(ev Event) {
	if c.onEvent != nil {
		c.onEvent(ev)
	}
}

func (c *Coordinator[T]) indexOf(id string) int {
	for i, it := range c.items {
		if c.idOf(it) == id {
			return i
		}
	}
	return -1
}
