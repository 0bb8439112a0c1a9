// Package dependencies provisions the external worker binaries over
// HTTP and reports which are present.
package dependencies

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"downtube/internal/domain/consts"
	"downtube/internal/models"
	"downtube/internal/utils/logging"
)

// ErrAlreadyInProgress is returned when a fetch is requested for a name
// that already has a transfer in flight.
var ErrAlreadyInProgress = errors.New("download already in progress")

// ErrStalled is returned when no data arrives within the activity window.
var ErrStalled = errors.New("no data received within activity window")

// ProgressFunc receives throttled transfer progress samples.
type ProgressFunc func(p models.DependencyProgress)

// Fetcher downloads binaries resiliently: it follows redirects up to a
// bound, aborts on inactivity rather than total duration, writes through
// a temporary sibling file, and installs atomically.
type Fetcher struct {
	client         *http.Client
	activityWindow time.Duration
	notifyEvery    time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewFetcher returns a fetcher with the default activity window.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			// Redirects are followed manually so each hop counts
			// against the same bound and resets nothing.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		activityWindow: consts.FetchInactivityTimeout,
		notifyEvery:    consts.ProgressNotifyInterval,
		inFlight:       make(map[string]bool),
	}
}

// SetActivityWindow overrides the inactivity abort window.
func (f *Fetcher) SetActivityWindow(d time.Duration) { f.activityWindow = d }

// Fetch downloads rawURL into dest. At most one transfer per name may be
// in flight; a second concurrent request fails immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest, name string, onProgress ProgressFunc) (string, error) {
	f.mu.Lock()
	if f.inFlight[name] {
		f.mu.Unlock()
		return "", fmt.Errorf("%s: %w", name, ErrAlreadyInProgress)
	}
	f.inFlight[name] = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.inFlight, name)
		f.mu.Unlock()
	}()

	logging.I("Starting download of %q from %s", name, rawURL)

	// The watchdog wraps the whole transfer, request included: the HTTP
	// request is bound to watchCtx so expiry unblocks an in-flight
	// body.Read rather than waiting for the next loop iteration.
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var stalled atomic.Bool
	watchdog := time.AfterFunc(f.activityWindow, func() {
		stalled.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	resp, err := f.get(watchCtx, rawURL, name)
	if err != nil {
		if stalled.Load() {
			return "", fmt.Errorf("download timeout for %s: %w", name, ErrStalled)
		}
		return "", err
	}
	defer resp.Body.Close()

	return f.writeBody(resp, dest, name, onProgress, watchdog, &stalled)
}

// get issues the request, re-issuing against redirect targets up to
// MaxRedirects hops, and succeeds only on status 200.
func (f *Fetcher) get(ctx context.Context, rawURL, name string) (*http.Response, error) {
	current := rawURL
	for hop := 0; hop <= consts.MaxRedirects; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return nil, fmt.Errorf("bad URL for %s: %w", name, err)
		}
		req.Header.Set("User-Agent", "downtube-dependency-fetcher/1.0")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("network error downloading %s: %w", name, err)
		}

		switch resp.StatusCode {
		case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
			http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
			loc := resp.Header.Get("Location")
			resp.Body.Close()
			next, err := resolveRedirect(current, loc)
			if err != nil {
				return nil, fmt.Errorf("bad redirect for %s: %w", name, err)
			}
			logging.D(1, "Following redirect for %q to: %s", name, next)
			current = next
			continue

		case http.StatusOK:
			return resp, nil

		default:
			resp.Body.Close()
			return nil, fmt.Errorf("failed to download %s: HTTP %d", name, resp.StatusCode)
		}
	}
	return nil, fmt.Errorf("failed to download %s: more than %d redirects", name, consts.MaxRedirects)
}

// writeBody streams the response into dest's temporary sibling, guarded
// by the activity watchdog, then installs atomically. The response body
// is already bound to the watchdog's context, so an expiry surfaces as
// a read error.
func (f *Fetcher) writeBody(resp *http.Response, dest, name string, onProgress ProgressFunc, watchdog *time.Timer, stalled *atomic.Bool) (string, error) {
	tmpPath := dest + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}

	cleanup := func() {
		out.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logging.W("Could not remove temp file %q: %v", tmpPath, rmErr)
		}
	}

	body := resp.Body
	totalBytes := resp.ContentLength
	var downloaded int64
	lastNotify := time.Now()

	buf := make([]byte, 32*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			watchdog.Reset(f.activityWindow)
			downloaded += int64(n)

			if _, wErr := out.Write(buf[:n]); wErr != nil {
				cleanup()
				return "", fmt.Errorf("file write error for %s: %w", name, wErr)
			}

			if onProgress != nil {
				now := time.Now()
				if now.Sub(lastNotify) > f.notifyEvery || downloaded == totalBytes {
					lastNotify = now
					onProgress(progressSample(name, downloaded, totalBytes))
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			cleanup()
			if stalled.Load() {
				return "", fmt.Errorf("download timeout for %s: %w", name, ErrStalled)
			}
			return "", fmt.Errorf("stream error for %s: %w", name, readErr)
		}
	}
	watchdog.Stop()

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}

	// Atomic install over any pre-existing file.
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(dest, 0o755); err != nil {
			return "", fmt.Errorf("failed to mark %s executable: %w", name, err)
		}
	}

	logging.S("Successfully downloaded: %s", name)
	return dest, nil
}

func progressSample(name string, downloaded, total int64) models.DependencyProgress {
	p := models.DependencyProgress{
		Name:            name,
		Progress:        -1,
		DownloadedBytes: downloaded,
		TotalBytes:      total,
		DownloadedMB:    float64(downloaded) / 1024 / 1024,
	}
	// Content-Length may be absent; percent is only computable when known.
	if total > 0 {
		p.Progress = int(float64(downloaded) / float64(total) * 100)
		p.TotalMB = float64(total) / 1024 / 1024
	}
	return p
}

func resolveRedirect(base, loc string) (string, error) {
	if loc == "" {
		return "", errors.New("redirect response missing Location header")
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(ref).String(), nil
}
