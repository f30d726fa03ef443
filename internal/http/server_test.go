package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"boardview/internal/board"
	"boardview/internal/core"
	"boardview/internal/trello/api"
	"boardview/internal/trello/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

type failingSource struct{ err error }

func (f failingSource) BoardID() string { return "broken" }
func (f failingSource) Index(context.Context) (*board.Index, error) {
	return nil, f.err
}

type staticSource struct{ idx *board.Index }

func (s staticSource) BoardID() string                             { return s.idx.BoardID }
func (s staticSource) Index(context.Context) (*board.Index, error) { return s.idx, nil }

func newTestServer(t *testing.T, src DashboardSource, opts Options) *Server {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	s := NewServer(":0", src, opts)
	require.NotNil(t, s.templates)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func fixtureSource(t *testing.T) DashboardSource {
	t.Helper()
	store, err := memory.NewFromDir(filepath.Join("..", "..", "data", "board"), "fixture")
	require.NoError(t, err)
	return board.NewService(store, core.DefaultLayout(), time.Second, nil)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestPages(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{})

	tests := []struct {
		path    string
		want    []string
		notWant []string
	}{
		{"/", []string{"Draft landing page copy", "Widget onboarding flow"}, []string{"Migrate blog archive"}},
		{"/done", []string{"Gizmo pricing research", "October community meetup"}, []string{"Draft landing page copy"}},
		{"/backlog", []string{"Migrate blog archive", "November community meetup"}, nil},
		{"/upcoming", []string{"Draft landing page copy", "Due in the next 14 days"}, []string{"November community meetup"}},
		{"/upcoming?days=30", []string{"November community meetup"}, nil},
		{"/activity", []string{"Writing", "Draft landing page copy"}, []string{"Migrate blog archive"}},
		{"/products", []string{"Widget", "Gizmo pricing research"}, nil},
		{"/epics", []string{"Website Relaunch", "Draft landing page copy"}, []string{"Migrate blog archive"}},
		{"/labels", []string{"Meetup", "/labels/Website%20Relaunch"}, nil},
		{"/labels/Website%20Relaunch", []string{"Migrate blog archive", "Draft landing page copy"}, nil},
		{"/members", []string{"Ada Lovelace", "Grace Hopper"}, nil},
		{"/members/m2", []string{"Widget onboarding flow"}, []string{"Draft landing page copy"}},
		{"/highlights?year=2026&month=9", []string{"Gizmo pricing research"}, []string{"October community meetup"}},
		{"/events?year=2026&month=0", []string{"October community meetup", "November community meetup", "74"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := get(t, s, tt.path)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
			body := rr.Body.String()
			assert.Contains(t, body, "Board fixture")
			for _, w := range tt.want {
				assert.Contains(t, body, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, body, w)
			}
		})
	}
}

func TestHighlightsDefaultsToCurrentMonth(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{})

	rr := get(t, s, "/highlights")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Highlights for October 2026")
	assert.Contains(t, rr.Body.String(), "October community meetup")
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{})

	tests := []struct {
		path string
		want int
	}{
		{"/labels/Nope", http.StatusNotFound},
		{"/members/ghost", http.StatusNotFound},
		{"/highlights?month=13", http.StatusBadRequest},
		{"/highlights?month=0", http.StatusBadRequest},
		{"/highlights?year=abc", http.StatusBadRequest},
		{"/events?month=-1", http.StatusBadRequest},
		{"/upcoming?days=0", http.StatusBadRequest},
		{"/no/such/page", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := get(t, s, tt.path)
			assert.Equal(t, tt.want, rr.Code)
			assert.Contains(t, rr.Body.String(), `class="error"`)
		})
	}
}

func TestMissingListIsServerError(t *testing.T) {
	store := memory.New(core.Snapshot{
		BoardID: "nolists",
		Lists:   []core.List{{ID: "l1", Name: "Inbox"}},
	})
	s := newTestServer(t, board.NewService(store, core.DefaultLayout(), time.Second, nil), Options{})

	rr := get(t, s, "/done")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Done")
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"upstream", errors.New("connection refused"), http.StatusBadGateway},
		{"timeout", fmt.Errorf("load board: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, failingSource{err: tt.err}, Options{})

			rr := get(t, s, "/")
			assert.Equal(t, tt.want, rr.Code)
			assert.Contains(t, rr.Body.String(), "could not be loaded")
			assert.NotContains(t, rr.Body.String(), "connection refused")
			assert.EqualValues(t, 1, s.appMetrics.fetchErrors.Load())
		})
	}
}

func TestWriteMethodsRejected(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{})

	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/done", strings.NewReader("x=1")))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "GET, HEAD", rr.Header().Get("Allow"))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{RateLimitPerMinute: 1})

	assert.Equal(t, http.StatusOK, get(t, s, "/backlog").Code)
	rr := get(t, s, "/backlog")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// health checks are not limited
	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{})

	rr := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	rr = get(t, s, "/readyz")
	require.Equal(t, http.StatusOK, rr.Code)
	var ready struct {
		Status  string         `json:"status"`
		BoardID string         `json:"board_id"`
		Checks  map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "fixture", ready.BoardID)
	assert.Equal(t, "ok", ready.Checks["templates"])
}

func TestReadyFailsWhenBoardUnreachable(t *testing.T) {
	s := newTestServer(t, failingSource{err: errors.New("down")}, Options{})

	rr := get(t, s, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_ready")
}

func TestReadyDoesNotExposeCredentials(t *testing.T) {
	transport := &http.Transport{}
	t.Cleanup(transport.CloseIdleConnections)
	client, err := api.New(api.Config{
		BaseURL:    "http://127.0.0.1:1",
		APIKey:     "SECRETKEY",
		Token:      "SECRETTOKEN",
		BoardID:    "board1",
		HTTPClient: &http.Client{Transport: transport, Timeout: time.Second},
	})
	require.NoError(t, err)

	sources := map[string]DashboardSource{
		"trello":  board.NewService(client, core.DefaultLayout(), time.Second, nil),
		"wrapped": failingSource{err: errors.New("GET https://api.trello.com/1/boards/x?key=SECRETKEY&token=SECRETTOKEN: refused")},
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, src, Options{})

			rr := get(t, s, "/readyz")
			assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
			assert.NotContains(t, rr.Body.String(), "SECRETKEY")
			assert.NotContains(t, rr.Body.String(), "SECRETTOKEN")
		})
	}
}

func TestLabelLinksAreEscaped(t *testing.T) {
	label := core.Label{ID: "l1", Name: "Q&A #1/2", Color: "blue"}
	idx := board.NewIndex(core.Snapshot{
		BoardID: "escapes",
		Labels:  []core.Label{label},
		Lists:   []core.List{{ID: "ip", Name: "In Progress"}},
		Cards:   []core.Card{{ID: "k1", Name: "Answer the mailbag", IDList: "ip", Labels: []core.Label{label}}},
	}, core.DefaultLayout())
	s := newTestServer(t, staticSource{idx: idx}, Options{})

	rr := get(t, s, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `href="/labels/Q&amp;A%20%231%2F2"`)

	rr = get(t, s, "/labels/Q&A%20%231%2F2")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Answer the mailbag")
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{})

	get(t, s, "/")
	get(t, s, "/done")

	rr := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "board_fetches_total 2\n")
	assert.Contains(t, body, "board_fetch_errors_total 0\n")
	assert.Contains(t, body, "# TYPE http_requests_total counter")
	assert.Contains(t, body, "uptime_seconds")
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{})

	rr := get(t, s, "/static/style.css")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), ".card")
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")
}

func TestSecurityHeadersOnPages(t *testing.T) {
	s := newTestServer(t, fixtureSource(t), Options{})

	rr := get(t, s, "/")
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}
