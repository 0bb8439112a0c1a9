package dependencies

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"downtube/internal/models"
)

// TestFetchFollowsRedirectChain walks a multi-hop redirect chain and
// verifies the binary is installed atomically with no temp leftovers.
func TestFetchFollowsRedirectChain(t *testing.T) {
	t.Parallel()

	const body = "fake-binary-bytes"
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/c", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(body)); err != nil {
			t.Errorf("write failed: %v", err)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "yt-dlp")
	f := NewFetcher()

	got, err := f.Fetch(context.Background(), srv.URL+"/a", dest, "yt-dlp", nil)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got != dest {
		t.Fatalf("returned path %q, want %q", got, dest)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("installed file unreadable: %v", err)
	}
	if string(data) != body {
		t.Fatalf("wrong content: %q", data)
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(dest)
		if err != nil {
			t.Fatalf("stat failed: %v", err)
		}
		if info.Mode().Perm() != 0o755 {
			t.Fatalf("installed binary not executable: %v", info.Mode())
		}
	}
}

func TestFetchTooManyRedirects(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}))
	defer srv.Close()

	f := NewFetcher()
	_, err := f.Fetch(context.Background(), srv.URL+"/loop", filepath.Join(t.TempDir(), "bin"), "bin", nil)
	if err == nil || !strings.Contains(err.Error(), "redirects") {
		t.Fatalf("expected redirect-bound error, got %v", err)
	}
}

func TestFetchBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher()
	dest := filepath.Join(t.TempDir(), "bin")
	if _, err := f.Fetch(context.Background(), srv.URL, dest, "bin", nil); err == nil {
		t.Fatal("expected error for HTTP 404")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("destination created despite failed fetch")
	}
}

// TestFetchRejectsConcurrentDuplicate verifies the per-name in-flight
// guard fails fast while the first transfer is still running.
func TestFetchRejectsConcurrentDuplicate(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.Write([]byte("done"))
	}))
	defer srv.Close()

	f := NewFetcher()
	dir := t.TempDir()

	errCh := make(chan error, 1)
	go func() {
		_, err := f.Fetch(context.Background(), srv.URL, filepath.Join(dir, "first"), "ffmpeg", nil)
		errCh <- err
	}()

	<-started
	_, err := f.Fetch(context.Background(), srv.URL, filepath.Join(dir, "second"), "ffmpeg", nil)
	if !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected ErrAlreadyInProgress, got %v", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
}

// TestFetchAbortsOnInactivity verifies a stalled transfer is abandoned
// after the activity window and its temp file removed.
func TestFetchAbortsOnInactivity(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		w.Write([]byte("partial"))
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	f := NewFetcher()
	f.SetActivityWindow(150 * time.Millisecond)

	dest := filepath.Join(t.TempDir(), "bin")
	_, err := f.Fetch(context.Background(), srv.URL, dest, "bin", nil)
	if !errors.Is(err, ErrStalled) {
		t.Fatalf("expected ErrStalled, got %v", err)
	}
	if _, statErr := os.Stat(dest + ".tmp"); !os.IsNotExist(statErr) {
		t.Fatal("temp file left behind after stall")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatal("destination installed despite stall")
	}
}

// TestFetchProgressWithoutLength verifies progress samples report -1
// percent when the server sends no Content-Length.
func TestFetchProgressWithoutLength(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Chunked response, length unknown to the client.
		w.Write(make([]byte, 64*1024))
	}))
	defer srv.Close()

	f := NewFetcher()
	f.notifyEvery = 0 // sample every chunk

	var samples []models.DependencyProgress
	_, err := f.Fetch(context.Background(), srv.URL, filepath.Join(t.TempDir(), "bin"), "bin", func(p models.DependencyProgress) {
		samples = append(samples, p)
	})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(samples) == 0 {
		t.Fatal("no progress samples received")
	}
	for _, p := range samples {
		if p.Progress != -1 {
			t.Fatalf("expected unknown progress (-1), got %d", p.Progress)
		}
		if p.DownloadedBytes == 0 {
			t.Fatalf("sample missing byte count: %+v", p)
		}
	}
}

func TestProgressSampleKnownLength(t *testing.T) {
	t.Parallel()

	p := progressSample("yt-dlp", 512, 1024)
	if p.Progress != 50 {
		t.Fatalf("expected 50%%, got %d", p.Progress)
	}
	if p.TotalMB == 0 {
		t.Fatalf("total MB not computed: %+v", p)
	}
}

func TestManagerCheckReportsMissing(t *testing.T) {
	t.Parallel()

	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	status := m.Check()
	if status.YtDlp || status.FFmpeg || status.AllAvailable {
		t.Fatalf("empty bin dir reported as available: %+v", status)
	}
	if m.YtDlpPath() != "" || m.FFmpegPath() != "" {
		t.Fatal("missing binaries resolved to non-empty paths")
	}
}

func TestManagerCheckFindsBinaries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	for _, name := range []string{exeName("yt-dlp"), exeName("ffmpeg")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("bin"), 0o755); err != nil {
			t.Fatalf("failed to seed binary %q: %v", name, err)
		}
	}

	status := m.Check()
	if !status.AllAvailable {
		t.Fatalf("seeded binaries not detected: %+v", status)
	}
	if m.YtDlpPath() == "" || m.FFmpegPath() == "" {
		t.Fatal("paths empty for present binaries")
	}
}
