package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"downtube/internal/dependencies"
	"downtube/internal/downloads"
	"downtube/internal/history"
	"downtube/internal/models"
	"downtube/internal/registry"
)

type noBins struct{}

func (noBins) YtDlpPath() string  { return "" }
func (noBins) FFmpegPath() string { return "" }

// newTestRouter wires a router against real collaborators with no
// worker binaries installed.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	hs, err := history.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open history store: %v", err)
	}
	t.Cleanup(func() { hs.Close() })

	depMgr, err := dependencies.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create dependency manager: %v", err)
	}

	log := NewEventLog(16)
	dlMgr := downloads.NewManager(&downloads.Options{OutputDir: t.TempDir()}, registry.New(), noBins{}, hs, log)

	return NewRouter(dlMgr, hs, depMgr, log)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListDownloadsEmpty(t *testing.T) {
	h := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/downloads", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var jobs []models.Job
	if err := json.Unmarshal(w.Body.Bytes(), &jobs); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

func TestStartDownloadRejections(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed body", "{not json", http.StatusBadRequest},
		{"unsupported url", `{"url":"https://example.com/x","format":"mp4"}`, http.StatusUnprocessableEntity},
		{"missing binaries", `{"url":"https://youtu.be/abc","format":"mp4"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		w := doRequest(t, h, http.MethodPost, "/api/v1/downloads", tc.body)
		if w.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d (%s)", tc.name, tc.code, w.Code, w.Body.String())
		}
	}
}

func TestGetDownloadNotFound(t *testing.T) {
	h := newTestRouter(t)

	if w := doRequest(t, h, http.MethodGet, "/api/v1/downloads/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCancelDownloadNotFound(t *testing.T) {
	h := newTestRouter(t)

	if w := doRequest(t, h, http.MethodDelete, "/api/v1/downloads/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	h := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var records []models.HistoryRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty history, got %d records", len(records))
	}

	if w := doRequest(t, h, http.MethodDelete, "/api/v1/history", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestCheckDependencies(t *testing.T) {
	h := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/api/v1/dependencies", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var status models.DependencyStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	if status.AllAvailable {
		t.Fatalf("empty bin dir reported available: %+v", status)
	}
}

func TestProbeRequiresValidURL(t *testing.T) {
	h := newTestRouter(t)

	if w := doRequest(t, h, http.MethodGet, "/api/v1/probe/formats", ""); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("formats without url: expected 422, got %d", w.Code)
	}
	if w := doRequest(t, h, http.MethodGet, "/api/v1/probe/info?url=https://example.com/x", ""); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("info with unsupported url: expected 422, got %d", w.Code)
	}
}

func TestEventsEndpoint(t *testing.T) {
	hs, err := history.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open history store: %v", err)
	}
	t.Cleanup(func() { hs.Close() })
	depMgr, err := dependencies.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create dependency manager: %v", err)
	}
	log := NewEventLog(16)
	h := NewRouter(downloads.NewManager(nil, registry.New(), noBins{}, hs, log), hs, depMgr, log)

	w := doRequest(t, h, http.MethodGet, "/api/v1/events", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Events []SeqEvent `json:"events"`
		Next   uint64     `json:"next"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	if len(resp.Events) != 0 || resp.Next != 0 {
		t.Fatalf("expected empty feed, got %+v", resp)
	}

	log.Notify(models.Event{Type: models.EventProgress, At: time.Now()})
	log.Notify(models.Event{Type: models.EventItemComplete, At: time.Now()})

	w = doRequest(t, h, http.MethodGet, "/api/v1/events?since=1", "")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	if len(resp.Events) != 1 || resp.Next != 2 {
		t.Fatalf("wrong slice of feed: %+v", resp)
	}
	if resp.Events[0].Type != models.EventItemComplete {
		t.Fatalf("wrong event returned: %+v", resp.Events[0])
	}

	if w := doRequest(t, h, http.MethodGet, "/api/v1/events?since=bogus", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad since, got %d", w.Code)
	}
}

func TestEventLogRingOverwrite(t *testing.T) {
	t.Parallel()

	log := NewEventLog(3)
	for i := 0; i < 5; i++ {
		log.Notify(models.Event{Type: models.EventProgress})
	}

	evs, next := log.Since(0)
	if next != 5 {
		t.Fatalf("expected next=5, got %d", next)
	}
	if len(evs) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(evs))
	}
	if evs[0].Seq != 2 || evs[2].Seq != 4 {
		t.Fatalf("wrong retained window: %d..%d", evs[0].Seq, evs[len(evs)-1].Seq)
	}

	evs, _ = log.Since(4)
	if len(evs) != 1 || evs[0].Seq != 4 {
		t.Fatalf("Since(4) returned wrong events: %+v", evs)
	}
}
