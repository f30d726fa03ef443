package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"boardview/internal/core"
)

type recorded struct {
	method string
	path   string
	query  string
	body   []byte
}

func fakeSheetsAPI(t *testing.T, status int) (*httptest.Server, func() []recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{r.Method, r.URL.Path, r.URL.RawQuery, body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-123"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func sampleReport() core.Report {
	return core.Report{
		ID:          "r-1",
		BoardID:     "board-1",
		GeneratedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
		Sections: []core.ReportSection{
			{Name: "Done", Rows: []core.ReportRow{{Name: "Gizmo pricing research", List: "Done"}}},
			{Name: "Events", Rows: []core.ReportRow{{Name: "October community meetup", Attendees: 34}}},
		},
	}
}

func TestClient_Write(t *testing.T) {
	srv, requests := fakeSheetsAPI(t, http.StatusOK)
	c := testClient(t, srv)

	ref, err := c.Write(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "'Board Export'!A1:I4", ref)

	reqs := requests()
	require.Len(t, reqs, 2)

	assert.Equal(t, http.MethodPost, reqs[0].method)
	assert.True(t, strings.HasSuffix(reqs[0].path, ":clear"), reqs[0].path)
	assert.Contains(t, reqs[0].path, "sheet-123")

	assert.Equal(t, http.MethodPut, reqs[1].method)
	assert.Contains(t, reqs[1].query, "valueInputOption=RAW")
	var body struct {
		Values [][]any `json:"values"`
	}
	require.NoError(t, json.Unmarshal(reqs[1].body, &body))
	require.Len(t, body.Values, 4)
	assert.Equal(t, "Section", body.Values[1][0])
	assert.Equal(t, "Gizmo pricing research", body.Values[2][1])
	assert.Equal(t, "Events", body.Values[3][0])
}

func TestClient_WriteAPIError(t *testing.T) {
	srv, requests := fakeSheetsAPI(t, http.StatusForbidden)
	c := testClient(t, srv)

	_, err := c.Write(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear")
	assert.Len(t, requests(), 1)
}

func TestNew_Validation(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "x"})
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "x", ServiceAccountFile: "/does/not/exist.json"})
	assert.ErrorContains(t, err, "read service account file")
}

func TestRows(t *testing.T) {
	values := Rows(sampleReport())
	require.Len(t, values, 4)
	assert.Equal(t, []any{"Report r-1", "board-1", "2026-10-17T09:00:00Z"}, values[0])
	assert.Len(t, values[1], 1+len(core.ReportColumns))
	assert.Equal(t, 34, values[3][7])
}
