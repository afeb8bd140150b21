package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"commandcenter/internal/domain"
	"commandcenter/internal/kernel"
	"commandcenter/internal/metrics"
	"commandcenter/internal/repository"
	"commandcenter/internal/repository/sqlite"
	"commandcenter/internal/session"
)

type fakeSession struct {
	mu        sync.Mutex
	status    string
	running   bool
	launchErr error
	sendErr   error
	sent      []string
	stopped   bool
	frame     *session.Frame
	logs      []session.LogEntry
}

func newFakeSession() *fakeSession {
	g := domain.NewGraph()
	g.AddRelation("spark", "Ignite", domain.RelationTriggers)
	return &fakeSession{
		status: session.StatusReady,
		frame:  &session.Frame{SessionID: "sess-1", Status: session.StatusReady, LogSeq: 2, Graph: g.Snapshot()},
		logs: []session.LogEntry{
			{Seq: 1, Text: "booting"},
			{Seq: 2, Text: `[Teaching] Learned: "spark" -> [Ignite]`, Kind: "edge_added"},
		},
	}
}

func (f *fakeSession) ID() string            { return "sess-1" }
func (f *fakeSession) Frame() *session.Frame { return f.frame }

func (f *fakeSession) Logs(since uint64) []session.LogEntry {
	out := []session.LogEntry{}
	for _, e := range f.logs {
		if e.Seq > since {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeSession) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSession) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeSession) Launch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return kernel.ErrAlreadyRunning
	}
	if f.launchErr != nil {
		f.status = "ERROR: " + f.launchErr.Error()
		return f.launchErr
	}
	f.running = true
	f.status = session.StatusOnline
	return nil
}

func (f *fakeSession) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.running = false
	return nil
}

func (f *fakeSession) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	if !f.running {
		return kernel.ErrNotRunning
	}
	f.sent = append(f.sent, text)
	return nil
}

func newTestRouter(t *testing.T, s Session, archive repository.TranscriptStore) http.Handler {
	t.Helper()
	h := NewAPIHandler(s, archive, time.Second, zap.NewNop())
	return NewRouter(h, RouterOptions{Metrics: metrics.New().Handler(), Logger: zap.NewNop()})
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGetGraph(t *testing.T) {
	router := newTestRouter(t, newFakeSession(), nil)

	rec := do(t, router, http.MethodGet, "/api/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)

	frame := decode[session.Frame](t, rec)
	assert.Equal(t, "sess-1", frame.SessionID)
	require.Len(t, frame.Graph.Nodes, 2)
	require.Len(t, frame.Graph.Edges, 1)
	assert.Equal(t, frame.Graph.Nodes[1].Pos, frame.Graph.Edges[0].To)
}

func TestExportGraph(t *testing.T) {
	router := newTestRouter(t, newFakeSession(), nil)

	t.Run("json by default", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/graph/export", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "graph.json")
		snap := decode[domain.GraphSnapshot](t, rec)
		assert.Len(t, snap.Nodes, 2)
	})

	t.Run("yaml", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/graph/export?format=yaml", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "source: spark")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/graph/export?format=dot", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetLogs(t *testing.T) {
	router := newTestRouter(t, newFakeSession(), nil)

	tests := []struct {
		name  string
		query string
		code  int
		count int
		next  uint64
	}{
		{"all", "", http.StatusOK, 2, 2},
		{"since", "?since=1", http.StatusOK, 1, 2},
		{"caught up", "?since=2", http.StatusOK, 0, 2},
		{"invalid", "?since=abc", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/logs"+tt.query, "")
			require.Equal(t, tt.code, rec.Code)
			if tt.code != http.StatusOK {
				return
			}
			resp := decode[LogsResponse](t, rec)
			assert.Len(t, resp.Entries, tt.count)
			assert.Equal(t, tt.next, resp.Next)
		})
	}
}

func TestKernelLifecycle(t *testing.T) {
	s := newFakeSession()
	router := newTestRouter(t, s, nil)

	rec := do(t, router, http.MethodPost, "/api/commands", `{"command":"hello"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "not running")

	rec = do(t, router, http.MethodPost, "/api/kernel/launch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[StatusResponse](t, rec)
	assert.Equal(t, session.StatusOnline, status.Status)
	assert.True(t, status.Running)
	assert.Equal(t, 2, status.Nodes)

	rec = do(t, router, http.MethodPost, "/api/kernel/launch", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/commands", `{"command":"teach fire"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"teach fire"}, s.sent)

	rec = do(t, router, http.MethodPost, "/api/kernel/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.stopped)
	assert.False(t, decode[StatusResponse](t, rec).Running)
}

func TestLaunchFailureIsBadGateway(t *testing.T) {
	s := newFakeSession()
	s.launchErr = &kernel.LaunchError{Command: "node", Err: errors.New("not found")}
	router := newTestRouter(t, s, nil)

	rec := do(t, router, http.MethodPost, "/api/kernel/launch", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "ERROR: launch node: not found", resp.Details)
}

func TestSendCommandValidation(t *testing.T) {
	s := newFakeSession()
	s.running = true
	router := newTestRouter(t, s, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"command":`, http.StatusBadRequest},
		{"missing command", `{}`, http.StatusBadRequest},
		{"too long", `{"command":"` + strings.Repeat("x", 5000) + `"}`, http.StatusBadRequest},
		{"embedded newline", `{"command":"teach fire\n/sync"}`, http.StatusBadRequest},
		{"embedded carriage return", `{"command":"teach\rfire"}`, http.StatusBadRequest},
		{"ok", `{"command":"/sync"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/commands", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, []string{"/sync"}, s.sent)

	errTests := []struct {
		err  error
		code int
	}{
		{kernel.ErrCommandQueueFull, http.StatusServiceUnavailable},
		{session.ErrMultilineCommand, http.StatusBadRequest},
		{errors.New("write command: broken pipe"), http.StatusInternalServerError},
	}
	for _, tt := range errTests {
		s.sendErr = tt.err
		rec := do(t, router, http.MethodPost, "/api/commands", `{"command":"x"}`)
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
	}
}

func TestGetArchive(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		router := newTestRouter(t, newFakeSession(), nil)
		rec := do(t, router, http.MethodGet, "/api/archive", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.AppendLines(context.Background(), []repository.TranscriptRecord{
		{SessionID: "sess-1", Stream: "stdout", Text: "one", ReceivedAt: time.Now()},
		{SessionID: "sess-1", Stream: "stdout", Text: "two", ReceivedAt: time.Now()},
	}))
	router := newTestRouter(t, newFakeSession(), repo)

	t.Run("limit", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/archive?limit=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		records := decode[[]repository.TranscriptRecord](t, rec)
		require.Len(t, records, 1)
		assert.Equal(t, "two", records[0].Text)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/archive?limit=-3", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t, newFakeSession(), nil)

	rec := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "commandcenter_graph_nodes")

	rec = do(t, router, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "no hub configured")
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, newFakeSession(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/commands", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
