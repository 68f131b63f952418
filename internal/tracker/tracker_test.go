package tracker

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sadopc/focusflow/internal/api"
	"github.com/sadopc/focusflow/internal/reconcile"
)

type token string

func (t token) Token() (string, error) { return string(t), nil }

type call struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// backend is a fake API server. Tests register routes with handle and
// inspect what the client sent with calls.
type backend struct {
	mux *http.ServeMux

	mu  sync.Mutex
	log []call
}

func (b *backend) handle(pattern string, h http.HandlerFunc) {
	b.mux.HandleFunc(pattern, h)
}

func (b *backend) calls(method, path string) []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []call
	for _, c := range b.log {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (b *backend) count(method, path string) int { return len(b.calls(method, path)) }

type events struct {
	mu  sync.Mutex
	got []reconcile.Event
}

func (e *events) add(ev reconcile.Event) {
	e.mu.Lock()
	e.got = append(e.got, ev)
	e.mu.Unlock()
}

func (e *events) kinds() []reconcile.EventKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]reconcile.EventKind, len(e.got))
	for i, ev := range e.got {
		out[i] = ev.Kind
	}
	return out
}

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func newBackend(t *testing.T) (*backend, Deps, *events) {
	t.Helper()
	b := &backend{mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.log = append(b.log, call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})
		b.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}, token("tok"))
	require.NoError(t, err)
	ev := &events{}
	return b, Deps{
		API:      client,
		Debounce: 20 * time.Millisecond,
		OnEvent:  ev.add,
		Now:      func() time.Time { return fixedNow },
	}, ev
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func ok(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { reply(w, http.StatusOK, v) }
}

func fail(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		reply(w, status, map[string]string{"message": "nope"})
	}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

// bodyOf decodes a request body inside a handler, where require cannot be
// used. A malformed body yields the zero value.
func bodyOf[T any](r *http.Request) T {
	var v T
	_ = json.NewDecoder(r.Body).Decode(&v)
	return v
}
