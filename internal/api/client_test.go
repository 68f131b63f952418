package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/focusflow/internal/metrics"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type failingToken struct{}

func (failingToken) Token() (string, error) { return "", errors.New("storage locked") }

type recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// fakeServer records every request and answers with the handler's response.
type fakeServer struct {
	mu       sync.Mutex
	requests []recorded
}

func (f *fakeServer) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, tokens TokenSource, handler http.HandlerFunc) (*Client, *fakeServer) {
	t.Helper()
	fs := &fakeServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fs.mu.Lock()
		fs.requests = append(fs.requests, recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		fs.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second}, tokens, WithMetrics(metrics.New()))
	require.NoError(t, err)
	return c, fs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestBearerTokenAttached(t *testing.T) {
	c, fs := newTestClient(t, staticToken("abc"), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, User{ID: "u1", Email: "me@example.com"})
	})

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	req := fs.last()
	assert.Equal(t, "/api/auth/me", req.Path)
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
}

func TestNoTokenSendsUnauthenticated(t *testing.T) {
	c, fs := newTestClient(t, staticToken(""), func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, AuthResponse{Token: "t", User: User{ID: "u1"}})
	})

	_, err := c.Login(context.Background(), Credentials{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Empty(t, fs.last().Header.Get("Authorization"))

	c2, fs2 := newTestClient(t, failingToken{}, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, User{})
	})
	_, err = c2.Me(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fs2.last().Header.Get("Authorization"))
}

func TestErrorPayloadFields(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", 400, `{"message":"Project name is required"}`, "Project name is required"},
		{"msg", 404, `{"msg":"Card not found"}`, "Card not found"},
		{"error", 401, `{"error":"Incorrect current password."}`, "Incorrect current password."},
		{"html", 502, `<html>bad gateway</html>`, GenericMessage},
		{"empty", 500, ``, GenericMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			err := c.UpdatePassword(context.Background(), "old", "new")
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Message)
			assert.Equal(t, tc.want, Message(err))
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsNotFound(&Error{Status: 404}))
	assert.True(t, IsUnauthorized(&Error{Status: 401}))
	assert.True(t, IsForbidden(&Error{Status: 403}))
	assert.False(t, IsNotFound(errors.New("dial tcp: refused")))
	assert.Equal(t, GenericMessage, Message(errors.New("dial tcp: refused")))
}

func TestListGoalsDecodesBuckets(t *testing.T) {
	c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"short":[{"id":"g1","type":"short","title":"Run","status":"todo","steps":[{"id":"s1","text":"shoes","done":true,"is_milestone":false,"deadline":""}],"dependency_ids":[],"project_id":null,"image_url":null}],"long":[]}`))
	})

	list, err := c.ListGoals(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Short, 1)
	assert.Equal(t, "Run", list.Short[0].Title)
	assert.True(t, list.Short[0].Steps[0].Done)
	assert.Empty(t, list.Long)
}

func TestUpdateGoalPutsWholeGoal(t *testing.T) {
	c, fs := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		var g Goal
		_ = json.NewDecoder(r.Body).Decode(&g)
		writeJSON(w, 200, g)
	})

	g := Goal{ID: "g1", Title: "Ship", Steps: []Step{{ID: "s1", Text: "write"}}}
	out, err := c.UpdateGoal(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "Ship", out.Title)

	req := fs.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/goals/g1", req.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	_, err = c.UpdateGoal(context.Background(), Goal{})
	assert.Error(t, err)
}

func TestDeleteGoalNoContent(t *testing.T) {
	c, fs := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.DeleteGoal(context.Background(), "g9"))
	assert.Equal(t, http.MethodDelete, fs.last().Method)
}

func TestReorderBody(t *testing.T) {
	c, fs := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"msg": "Goals reordered successfully"})
	})
	require.NoError(t, c.ReorderGoals(context.Background(), []string{"b", "a"}))
	assert.JSONEq(t, `{"ordered_ids":["b","a"]}`, string(fs.last().Body))
}

func TestUploadGoalImage(t *testing.T) {
	c, fs := newTestClient(t, staticToken("tok"), func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		writeJSON(w, 200, map[string]string{"url": "/uploads/cover.png"})
	})

	url, err := c.UploadGoalImage(context.Background(), "cover.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/cover.png", url)
	req := fs.last()
	assert.True(t, strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data"))
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
}

func TestTransactionAmountsAreNumbers(t *testing.T) {
	c, fs := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"t1","type":"expense","category":"Food (VISA)","amount":500.5,"date":"2026-03-02"}`))
	})

	tx, err := c.CreateTransaction(context.Background(), Transaction{
		Type: TxExpense, Category: "Food (VISA)", Amount: decimal.RequireFromString("500.5"), Date: "2026-03-02",
	})
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("500.5")))
	assert.Contains(t, string(fs.last().Body), `"amount":500.5`)
}

func TestPaginatedTransactionsQuery(t *testing.T) {
	c, fs := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, TransactionPage{Total: 0})
	})
	_, err := c.Transactions(context.Background(), 3, 2026, 50, 25)
	require.NoError(t, err)
	req := fs.last()
	assert.Equal(t, "/api/money/transactions/paginated", req.Path)
	assert.Contains(t, req.Query, "month=3")
	assert.Contains(t, req.Query, "year=2026")
	assert.Contains(t, req.Query, "skip=50")
	assert.Contains(t, req.Query, "limit=25")
}

func TestGymDayNullWeight(t *testing.T) {
	c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"weight":null,"water_glasses":3,"pushups":0,"pullups":0,"squads":0,"notes":"","exercises":[],"meals":[]}`))
	})
	day, err := c.GymDay(context.Background(), "2026-03-02")
	require.NoError(t, err)
	assert.False(t, day.Weight.Valid)
	assert.Equal(t, 3, day.WaterGlasses)
	assert.Equal(t, "2026-03-02", day.Date)
}

func TestSaveGymDayPartialFields(t *testing.T) {
	c, fs := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"message": "ok"})
	})
	water := 5
	require.NoError(t, c.SaveGymDay(context.Background(), GymDayFields{Date: "2026-03-02", WaterGlasses: &water}))
	assert.JSONEq(t, `{"date":"2026-03-02","water_glasses":5}`, string(fs.last().Body))

	assert.Error(t, c.SaveGymDay(context.Background(), GymDayFields{}))
}

func TestGymAnalyticsRejectsRange(t *testing.T) {
	c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []GymDayStats{})
	})
	_, err := c.GymAnalytics(context.Background(), "year")
	assert.Error(t, err)
}

func TestCalendarEventsQuery(t *testing.T) {
	c, fs := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []CalendarEvent{{ID: "goal-1", Title: "Ship", Date: "2026-03-04", Type: "goal"}})
	})
	events, err := c.CalendarEvents(context.Background(), "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, fs.last().Query, "start_date=2026-03-01")
}

func TestUserPatchOmitsUnchanged(t *testing.T) {
	c, fs := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{"message": "ok"})
	})
	active := false
	require.NoError(t, c.UpdateUser(context.Background(), "u2", UserPatch{IsActive: &active}))
	assert.JSONEq(t, `{"is_active":false}`, string(fs.last().Body))
}

func TestContextCancelled(t *testing.T) {
	c, _ := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []Task{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListTasks(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/goals/:id/steps/:id", routeLabel("/goals/0b8e2f5c-7d3c-4b61-9a0e-3f2b1c4d5e6f/steps/42"))
	assert.Equal(t, "/routines/:date", routeLabel("/routines/2026-03-02"))
	assert.Equal(t, "/gym/analytics/week", routeLabel("/gym/analytics/week"))
}
