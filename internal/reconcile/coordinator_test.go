package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID    string
	Title string
	Tags  []string
}

func cloneNote(n note) note {
	n.Tags = append([]string(nil), n.Tags...)
	return n
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

func newNotes(t *testing.T, debounce time.Duration) (*Coordinator[note], *eventLog) {
	t.Helper()
	log := &eventLog{}
	c := New(func(n note) string { return n.ID }, Options[note]{
		Entity:   "note",
		Debounce: debounce,
		Clone:    cloneNote,
		OnEvent:  log.add,
	})
	c.Replace([]note{{ID: "a", Title: "alpha"}, {ID: "b", Title: "beta"}, {ID: "c", Title: "gamma"}})
	t.Cleanup(c.Close)
	return c, log
}

// recorder is a persist func that remembers every value it was asked to write.
type recorder struct {
	mu     sync.Mutex
	writes []note
	fail   error
}

func (r *recorder) persist(_ context.Context, n note) (note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, n)
	if r.fail != nil {
		return note{}, r.fail
	}
	return n, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func TestUpdateIsOptimistic(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	rec := &recorder{}

	require.NoError(t, c.Update("a", func(n *note) { n.Title = "ALPHA" }, rec.persist))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "ALPHA", got.Title)
	assert.True(t, c.Dirty("a"))
	assert.Equal(t, 0, rec.count())
}

func TestRapidEditsProduceOneWriteWithFinalValue(t *testing.T) {
	c, log := newNotes(t, 25*time.Millisecond)
	rec := &recorder{}

	for _, title := range []string{"R", "Re", "Rea", "Read", "Read a Book"} {
		title := title
		require.NoError(t, c.Update("a", func(n *note) { n.Title = title }, rec.persist))
	}

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.writes, 1)
	assert.Equal(t, "Read a Book", rec.writes[0].Title)
	assert.Equal(t, []EventKind{EventSynced}, log.kinds())
	assert.False(t, c.Dirty("a"))
}

func TestDifferentIDsWriteIndependently(t *testing.T) {
	c, _ := newNotes(t, 20*time.Millisecond)
	rec := &recorder{}

	require.NoError(t, c.Update("a", func(n *note) { n.Title = "x" }, rec.persist))
	require.NoError(t, c.Update("b", func(n *note) { n.Title = "y" }, rec.persist))

	assert.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestFailedWriteRevertsToSnapshot(t *testing.T) {
	c, log := newNotes(t, 10*time.Millisecond)
	rec := &recorder{fail: errors.New("500")}

	require.NoError(t, c.Update("a", func(n *note) {
		n.Title = "changed"
		n.Tags = append(n.Tags, "x")
	}, rec.persist))
	require.NoError(t, c.Update("a", func(n *note) { n.Title = "changed again" }, rec.persist))

	assert.Eventually(t, func() bool {
		got, _ := c.Get("a")
		return got.Title == "alpha"
	}, time.Second, 5*time.Millisecond)

	got, _ := c.Get("a")
	assert.Empty(t, got.Tags)
	assert.Equal(t, []EventKind{EventReverted}, log.kinds())
	assert.False(t, c.Dirty("a"))
}

func TestApplyPersistsEagerlyAndReturnsError(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	rec := &recorder{}

	require.NoError(t, c.Update("b", func(n *note) { n.Title = "draft" }, rec.persist))
	require.NoError(t, c.Apply("b", func(n *note) { n.Tags = []string{"pinned"} }, rec.persist))

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "draft", rec.writes[0].Title)
	assert.Equal(t, []string{"pinned"}, rec.writes[0].Tags)

	rec.fail = errors.New("offline")
	err := c.Apply("b", func(n *note) { n.Title = "lost" }, rec.persist)
	assert.Error(t, err)
	got, _ := c.Get("b")
	assert.Equal(t, "draft", got.Title)
}

func TestServerValueIsAdopted(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	persist := func(_ context.Context, n note) (note, error) {
		n.Tags = []string{"server-added"}
		return n, nil
	}
	require.NoError(t, c.Apply("c", func(n *note) { n.Title = "g" }, persist))
	got, _ := c.Get("c")
	assert.Equal(t, []string{"server-added"}, got.Tags)
}

func TestEmptyServerEchoKeepsLocalValue(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	persist := func(_ context.Context, n note) (note, error) { return note{}, nil }
	require.NoError(t, c.Apply("c", func(n *note) { n.Title = "kept" }, persist))
	got, _ := c.Get("c")
	assert.Equal(t, "kept", got.Title)
}

func TestUpdateUnknownID(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	err := c.Update("zzz", func(n *note) {}, (&recorder{}).persist)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveRestoresAtPositionOnFailure(t *testing.T) {
	c, log := newNotes(t, time.Hour)

	err := c.Remove("b", func(context.Context, string) error { return errors.New("403") })
	require.Error(t, err)

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, []EventKind{EventReverted}, log.kinds())
}

func TestRemoveIsImmediate(t *testing.T) {
	c, log := newNotes(t, time.Hour)

	var sawLocal bool
	err := c.Remove("a", func(context.Context, string) error {
		_, sawLocal = c.Get("a")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, sawLocal, "item must be gone before the server answers")
	assert.Len(t, c.Items(), 2)
	assert.Equal(t, []EventKind{EventRemoved}, log.kinds())
}

func TestRemoveCancelsPendingWrite(t *testing.T) {
	c, _ := newNotes(t, 20*time.Millisecond)
	rec := &recorder{}

	require.NoError(t, c.Update("a", func(n *note) { n.Title = "doomed" }, rec.persist))
	require.NoError(t, c.Remove("a", func(context.Context, string) error { return nil }))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestReorderAndRollback(t *testing.T) {
	c, _ := newNotes(t, time.Hour)

	var sent []string
	require.NoError(t, c.Reorder([]string{"c", "a"}, func(_ context.Context, ids []string) error {
		sent = ids
		return nil
	}))
	assert.Equal(t, []string{"c", "a"}, sent)
	assert.Equal(t, []string{"c", "a", "b"}, ids(c.Items()))

	err := c.Reorder([]string{"b", "c", "a"}, func(context.Context, []string) error { return errors.New("nope") })
	require.Error(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(c.Items()))
}

func TestReplaceKeepsPendingLocalEdits(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	require.NoError(t, c.Update("a", func(n *note) { n.Title = "local" }, (&recorder{}).persist))

	c.Replace([]note{{ID: "a", Title: "server"}, {ID: "d", Title: "delta"}})

	got, _ := c.Get("a")
	assert.Equal(t, "local", got.Title)
	assert.Equal(t, []string{"a", "d"}, ids(c.Items()))
}

func TestFlushSendsPendingNow(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	rec := &recorder{}
	require.NoError(t, c.Update("a", func(n *note) { n.Title = "now" }, rec.persist))

	c.Flush()
	assert.Equal(t, 1, rec.count())
	assert.False(t, c.Dirty("a"))
}

func TestCloseDropsPendingAndRejectsEdits(t *testing.T) {
	c, _ := newNotes(t, 20*time.Millisecond)
	rec := &recorder{}
	require.NoError(t, c.Update("a", func(n *note) { n.Title = "late" }, rec.persist))

	c.Close()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.ErrorIs(t, c.Update("a", func(*note) {}, rec.persist), ErrClosed)
}

func TestCloseCancelsInFlight(t *testing.T) {
	c, log := newNotes(t, time.Hour)
	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- c.Apply("a", func(n *note) { n.Title = "slow" }, func(ctx context.Context, n note) (note, error) {
			close(started)
			<-ctx.Done()
			return note{}, ctx.Err()
		})
	}()

	<-started
	c.Close()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, log.kinds())
}

func TestApplyPartSendsPendingEditFirst(t *testing.T) {
	c, log := newNotes(t, time.Hour)
	whole := &recorder{}
	require.NoError(t, c.Update("a", func(n *note) { n.Title = "edited" }, whole.persist))

	part := &recorder{}
	require.NoError(t, c.ApplyPart("a", func(n *note) { n.Tags = []string{"x"} }, part.persist))

	require.Equal(t, 1, whole.count())
	assert.Equal(t, "edited", whole.writes[0].Title)
	assert.Equal(t, 1, part.count())
	assert.False(t, c.Dirty("a"))

	got, _ := c.Get("a")
	assert.Equal(t, "edited", got.Title)
	assert.Equal(t, []string{"x"}, got.Tags)
	assert.Equal(t, []EventKind{EventSynced, EventSynced}, log.kinds())
}

func TestFailedApplyPartKeepsEarlierEdit(t *testing.T) {
	c, log := newNotes(t, time.Hour)
	whole := &recorder{}
	require.NoError(t, c.Update("a", func(n *note) { n.Title = "edited" }, whole.persist))

	part := &recorder{fail: errors.New("nope")}
	require.Error(t, c.ApplyPart("a", func(n *note) { n.Tags = []string{"x"} }, part.persist))

	got, _ := c.Get("a")
	assert.Equal(t, "edited", got.Title)
	assert.Empty(t, got.Tags)
	assert.Equal(t, 1, whole.count())
	assert.Equal(t, []EventKind{EventSynced, EventReverted}, log.kinds())
}

func TestReorderRollbackKeepsConcurrentChanges(t *testing.T) {
	c, _ := newNotes(t, time.Hour)

	err := c.Reorder([]string{"c", "b", "a"}, func(context.Context, []string) error {
		c.Insert(note{ID: "d", Title: "delta"})
		require.NoError(t, c.Update("a", func(n *note) { n.Title = "edited" }, (&recorder{}).persist))
		return errors.New("nope")
	})
	require.Error(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(c.Items()))
	got, _ := c.Get("a")
	assert.Equal(t, "edited", got.Title)
}

func TestDrainSendsPendingAndCloses(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	rec := &recorder{}
	require.NoError(t, c.Update("a", func(n *note) { n.Title = "bye" }, rec.persist))

	require.NoError(t, c.Drain(t.Context()))
	assert.Equal(t, 1, rec.count())
	assert.ErrorIs(t, c.Update("a", func(*note) {}, rec.persist), ErrClosed)
}

func TestDrainGivesUpWhenContextEnds(t *testing.T) {
	c, _ := newNotes(t, time.Hour)
	hang := func(ctx context.Context, n note) (note, error) {
		<-ctx.Done()
		return note{}, ctx.Err()
	}
	require.NoError(t, c.Update("a", func(n *note) { n.Title = "x" }, hang))
	require.NoError(t, c.Update("b", func(n *note) { n.Title = "y" }, hang))

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.ErrorIs(t, c.Drain(ctx), context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func ids(items []note) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}

func TestConfirmSurvivesRevert(t *testing.T) {
	c, _ := newNotes(t, 10*time.Millisecond)
	rec := &recorder{fail: errors.New("500")}

	require.NoError(t, c.Update("a", func(n *note) { n.Title = "pending" }, rec.persist))
	require.NoError(t, c.Confirm("a", func(n *note) { n.Tags = append(n.Tags, "server") }))

	got, _ := c.Get("a")
	assert.Equal(t, "pending", got.Title)
	assert.Equal(t, []string{"server"}, got.Tags)

	assert.Eventually(t, func() bool {
		got, _ := c.Get("a")
		return got.Title == "alpha"
	}, time.Second, 5*time.Millisecond)
	got, _ = c.Get("a")
	assert.Equal(t, []string{"server"}, got.Tags)

	assert.ErrorIs(t, c.Confirm("zzz", func(*note) {}), ErrNotFound)
}

func TestReorderRenumbers(t *testing.T) {
	type ranked struct {
		ID    string
		Order int
	}
	c := New(func(r ranked) string { return r.ID }, Options[ranked]{
		Renumber: func(r *ranked, i int) { r.Order = i },
	})
	t.Cleanup(c.Close)
	c.Replace([]ranked{{ID: "x", Order: 0}, {ID: "y", Order: 1}})

	require.NoError(t, c.Reorder([]string{"y", "x"}, func(context.Context, []string) error { return nil }))
	assert.Equal(t, []ranked{{ID: "y", Order: 0}, {ID: "x", Order: 1}}, c.Items())

	require.Error(t, c.Reorder([]string{"x", "y"}, func(context.Context, []string) error { return errors.New("no") }))
	assert.Equal(t, []ranked{{ID: "y", Order: 0}, {ID: "x", Order: 1}}, c.Items())
}
