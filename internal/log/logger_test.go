package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" warning ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestLogger_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentTrello)

	l.Info("fetched", FieldBoardID, "b1")
	out := buf.String()
	assert.Contains(t, out, "component=trello")
	assert.Contains(t, out, "board_id=b1")

	buf.Reset()
	l.WithComponent(ComponentExport).Warn("slow sink")
	assert.Contains(t, buf.String(), "component=export")
}

func TestFromContext(t *testing.T) {
	fallback := FromContext(context.Background())
	assert.Equal(t, "unknown", fallback.Component())

	var buf bytes.Buffer
	l := newBufferLogger(&buf, ComponentHTTP)
	var got *Logger
	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.Info("inside")
		}),
	))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, ComponentHTTP, got.Component())
	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentApp))
	ctx := context.Background()

	sl.LogBoardFetched(ctx, "b1", 6, 3, 7, 2, 12)
	assert.Contains(t, buf.String(), "card_count=6")
	assert.Contains(t, buf.String(), "operation=fetch")

	buf.Reset()
	sl.LogError(ctx, "fetch failed", errors.New("boom"), ComponentBoard, OpFetch, nil)
	assert.Contains(t, buf.String(), "error=boom")
	assert.Contains(t, buf.String(), "level=ERROR")

	buf.Reset()
	r := httptest.NewRequest(http.MethodGet, "/done", nil)
	sl.LogHTTPEnd(ctx, r, http.StatusBadGateway, 5, "127.0.0.1")
	assert.Contains(t, buf.String(), "status_code=502")
}

func TestStructuredLogger_SingleComponent(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentBoard))
	ctx := context.Background()

	sl.LogError(ctx, "fetch failed", errors.New("boom"), ComponentBoard, OpFetch, NewFields().WithBoard("b1", 0, 0, 0, 0))
	assert.Equal(t, 1, strings.Count(buf.String(), "component="), buf.String())
	assert.Contains(t, buf.String(), "component=board")

	buf.Reset()
	sl.LogError(ctx, "fetch failed", errors.New("boom"), "", OpFetch, nil)
	assert.Equal(t, 1, strings.Count(buf.String(), "component="), buf.String())
	assert.Contains(t, buf.String(), "component=board")

	buf.Reset()
	sl.LogViewRendered(ctx, "done", 2)
	assert.Equal(t, 1, strings.Count(buf.String(), "component="), buf.String())
	assert.Contains(t, buf.String(), "component=template")
}
