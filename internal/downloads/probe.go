package downloads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"downtube/internal/domain/command"
	"downtube/internal/domain/consts"
	"downtube/internal/utils/logging"
)

// FormatProbe lists the human-selectable qualities for a source.
type FormatProbe struct {
	VideoHeights []int `json:"video_heights"`
	AudioKbps    []int `json:"audio_kbps"`
}

// SourceInfo describes a source reference before download.
type SourceInfo struct {
	Type  string `json:"type"` // "video" or "playlist"
	Count int    `json:"count"`
	Title string `json:"title"`
}

var (
	probeVideoRx = regexp.MustCompile(`(?i)^(\s*\d+)\s+\S+\s+mp4\s+(\d+)x(\d+)`)
	probeAudioRx = regexp.MustCompile(`(?i)audio only`)
	probeKbpsRx  = regexp.MustCompile(`(?i)\b(\d+)\s*k(?:[^i]|$)`)
)

// ProbeFormats asks the worker for available formats and reduces them
// to distinct video heights and audio bitrates.
func (m *Manager) ProbeFormats(ctx context.Context, url string) (*FormatProbe, error) {
	if err := validateSourceURL(url); err != nil {
		return nil, err
	}

	out, _, err := m.runProbeWithRetry(ctx, command.ListFormats, url)
	if err != nil {
		return nil, err
	}

	heightSet := make(map[int]struct{})
	kbpsSet := make(map[int]struct{})

	for _, line := range strings.Split(out, "\n") {
		if mv := probeVideoRx.FindStringSubmatch(line); mv != nil {
			if h, err := strconv.Atoi(mv[3]); err == nil {
				heightSet[h] = struct{}{}
			}
			continue
		}
		if probeAudioRx.MatchString(line) {
			if mk := probeKbpsRx.FindStringSubmatch(line); mk != nil {
				if k, err := strconv.Atoi(mk[1]); err == nil {
					kbpsSet[k] = struct{}{}
				}
			}
		}
	}

	probe := &FormatProbe{
		VideoHeights: sortedKeys(heightSet),
		AudioKbps:    sortedKeys(kbpsSet),
	}
	return probe, nil
}

// FetchInfo resolves whether a source is a single video or a playlist,
// and how many items it holds.
func (m *Manager) FetchInfo(ctx context.Context, url string) (*SourceInfo, error) {
	if err := validateSourceURL(url); err != nil {
		return nil, err
	}

	out, stderr, err := m.runProbeWithRetry(ctx, command.DumpJSON, url, command.FlatPlaylist)
	if err != nil {
		if stderr != "" {
			return nil, fmt.Errorf("%s", classifyWorkerError(stderr, err))
		}
		return nil, err
	}

	var payload struct {
		Title   string            `json:"title"`
		Entries []json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse source information: %w", err)
	}

	if payload.Entries != nil {
		return &SourceInfo{Type: "playlist", Count: len(payload.Entries), Title: payload.Title}, nil
	}
	return &SourceInfo{Type: "video", Count: 1, Title: payload.Title}, nil
}

// runProbeWithRetry retries transient probe failures with a short
// delay. Validation failures never reach here.
func (m *Manager) runProbeWithRetry(ctx context.Context, args ...string) (stdout, stderr string, err error) {
	for attempt := 1; attempt <= m.opts.ProbeRetries; attempt++ {
		stdout, stderr, err = m.runProbe(ctx, args...)
		if err == nil || ctx.Err() != nil {
			return stdout, stderr, err
		}
		if attempt < m.opts.ProbeRetries {
			logging.W("Probe attempt %d failed, retrying: %v", attempt, err)
			select {
			case <-time.After(consts.RetryInterval):
			case <-ctx.Done():
				return "", "", ctx.Err()
			}
		}
	}
	return stdout, stderr, err
}

// runProbe runs the worker with the given arguments, capturing output
// under the same inactivity guard as supervised downloads.
func (m *Manager) runProbe(ctx context.Context, args ...string) (string, string, error) {
	ytdlp := m.binaries.YtDlpPath()
	if ytdlp == "" {
		return "", "", fmt.Errorf("yt-dlp not found; install dependencies first")
	}

	procCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(procCtx, ytdlp, args...)
	setProcGroup(cmd)

	var timedOut atomic.Bool
	watchdog := time.AfterFunc(m.opts.InactivityTimeout, func() {
		timedOut.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	outBuf := &activityBuffer{watchdog: watchdog, window: m.opts.InactivityTimeout}
	errBuf := &activityBuffer{watchdog: watchdog, window: m.opts.InactivityTimeout}
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf

	err := cmd.Run()
	if timedOut.Load() {
		return "", "", fmt.Errorf("request timed out: no data received for %v", m.opts.InactivityTimeout)
	}
	if err != nil {
		return outBuf.String(), errBuf.String(), fmt.Errorf("worker probe failed: %w", err)
	}
	return outBuf.String(), errBuf.String(), nil
}

// activityBuffer captures process output while resetting the shared
// inactivity watchdog on every write.
type activityBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	watchdog *time.Timer
	window   time.Duration
}

func (b *activityBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watchdog.Reset(b.window)
	return b.buf.Write(p)
}

func (b *activityBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
