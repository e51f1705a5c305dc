package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/gptrecap/internal/charts"
	"github.com/theirongolddev/gptrecap/internal/recap"
)

const export = `[
	{"id":"c1","title":"Planning","mapping":{
		"n1":{"message":{"id":"m1","author":{"role":"user"},"create_time":1700000000,"content":{"content_type":"text","parts":["How do I start?"]}}},
		"n2":{"message":{"id":"m2","author":{"role":"assistant"},"create_time":1700000060,"content":{"content_type":"text","parts":["Start small and iterate."]}}}
	}}
]`

func newTestService(t *testing.T, body string) *Service {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "conversations.json")
	require.NoError(t, os.WriteFile(input, []byte(body), 0o600))

	opts := recap.DefaultOptions(input, filepath.Join(dir, "outputs"))
	opts.SQLite = false
	return New(Config{Recap: opts, EventsBuffer: 10})
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Conversations: 10, Messages: 100, ActiveDays: 4}
	curr := Snapshot{Conversations: 12, Messages: 131, ActiveDays: 4}

	delta := diffSnapshots(prev, curr)
	if delta.Conversations != 2 {
		t.Fatalf("Conversations delta = %d, want 2", delta.Conversations)
	}
	if delta.Messages != 31 {
		t.Fatalf("Messages delta = %d, want 31", delta.Messages)
	}
	if delta.ActiveDays != 0 {
		t.Fatalf("ActiveDays delta = %d, want 0", delta.ActiveDays)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, "127.0.0.1:8788", s.cfg.Addr)
	assert.Equal(t, 500*time.Millisecond, s.cfg.Debounce)
	assert.Equal(t, 200, s.cfg.EventsBuffer)
}

func TestRunOnce_PublishesRecapEvents(t *testing.T) {
	s := newTestService(t, export)
	ctx := context.Background()

	s.runOnce(ctx)
	s.runOnce(ctx)

	status := s.snapshotStatus()
	assert.Equal(t, int64(2), status.RunCount)
	assert.Empty(t, status.LastError)
	assert.Equal(t, 2, status.Summary.Messages)
	assert.Equal(t, 1, status.Summary.Conversations)
	assert.InDelta(t, 0.5, status.Summary.AssistantShare, 1e-9)

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.events, 2)
	assert.Equal(t, EventRecap, s.events[0].Type)
	assert.Equal(t, int64(2), s.events[1].ID)
	assert.True(t, s.events[1].Delta.isZero())
}

func TestRunOnce_RecordsErrors(t *testing.T) {
	s := New(Config{})
	s.generate = func(context.Context, recap.Options) (*recap.Outcome, error) {
		return nil, errors.New("boom")
	}

	s.runOnce(context.Background())

	status := s.snapshotStatus()
	assert.Equal(t, "boom", status.LastError)
	assert.Equal(t, int64(1), status.RunCount)
	require.Equal(t, 1, status.EventCount)
	assert.Equal(t, EventError, s.events[0].Type)
	assert.Equal(t, "boom", s.events[0].Error)
	assert.Nil(t, s.latest())
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var b strings.Builder
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		b.WriteString(sc.Text())
		b.WriteByte('\n')
	}
	return resp, b.String()
}

func TestHandler_BeforeFirstRun(t *testing.T) {
	srv := httptest.NewServer(New(Config{}).Handler())
	defer srv.Close()

	resp, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", body)

	for _, path := range []string{"/", "/v1/metrics", "/charts/" + charts.Cumulative, "/v1/tables/messages_by_role"} {
		resp, _ := get(t, srv, path)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}

func TestHandler_Endpoints(t *testing.T) {
	s := newTestService(t, export)
	s.runOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, body := get(t, srv, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `src="messages_cumulative.svg"`)

	for _, path := range []string{"/" + charts.Cumulative, "/charts/" + charts.DepthMix} {
		resp, body := get(t, srv, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
		assert.Contains(t, body, "<svg")
	}
	resp, _ = get(t, srv, "/charts/nope.svg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, srv, "/v1/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var metrics map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &metrics))
	assert.EqualValues(t, 2, metrics["message_count_total"])

	resp, body = get(t, srv, "/v1/tables/messages_by_role")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var table tablePayload
	require.NoError(t, json.Unmarshal([]byte(body), &table))
	assert.Equal(t, []string{"role", "messages"}, table.Columns)
	assert.Len(t, table.Rows, 2)

	resp, _ = get(t, srv, "/v1/tables/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, srv, "/v1/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status Status
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, int64(1), status.RunCount)
	assert.Equal(t, 1, status.EventCount)

	resp, body = get(t, srv, "/v1/events")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var events []Event
	require.NoError(t, json.Unmarshal([]byte(body), &events))
	require.Len(t, events, 1)
	assert.Equal(t, EventRecap, events[0].Type)
}

func TestHandler_StreamSendsSnapshot(t *testing.T) {
	s := newTestService(t, export)
	s.runOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	assert.Equal(t, "event: snapshot", sc.Text())
	require.True(t, sc.Scan())
	assert.True(t, strings.HasPrefix(sc.Text(), "data: "))
	assert.Contains(t, sc.Text(), `"messages":2`)
}

func TestDebouncer_Coalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		d.Trigger()
	}

	select {
	case <-d.C:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}
	select {
	case <-d.C:
		t.Fatal("debouncer fired twice for one burst")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_SignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))

	w, err := newWatcher(path, 10*time.Millisecond)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.json"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(export), 0o600))

	select {
	case <-w.C:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal after writing the watched file")
	}
}
