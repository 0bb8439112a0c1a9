package dependencies

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"downtube/internal/domain/command"
	"downtube/internal/domain/consts"
	"downtube/internal/models"
	"downtube/internal/utils/logging"
)

// Release URLs for the worker binaries.
const (
	ytdlpURLWindows = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp.exe"
	ytdlpURLLinux   = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"
	ytdlpURLMacOS   = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_macos"

	ffmpegURLWindows = "https://github.com/MurShidM01/YouTube-Playlist-Downloader-Application/releases/download/v1.4.1/ffmpeg.exe"
)

// Manager checks for and installs the external worker binaries into a
// local bin directory. Only local binaries are used, never system PATH.
type Manager struct {
	binDir  string
	fetcher *Fetcher
}

// NewManager returns a manager rooted at binDir, creating it if needed.
func NewManager(binDir string) (*Manager, error) {
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bin directory %q: %w", binDir, err)
	}
	return &Manager{
		binDir:  binDir,
		fetcher: NewFetcher(),
	}, nil
}

func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func (m *Manager) ytdlpPath() string  { return filepath.Join(m.binDir, exeName(command.YTDLP)) }
func (m *Manager) ffmpegPath() string { return filepath.Join(m.binDir, exeName(command.FFmpeg)) }

func ytdlpURL() string {
	switch runtime.GOOS {
	case "windows":
		return ytdlpURLWindows
	case "darwin":
		return ytdlpURLMacOS
	default:
		return ytdlpURLLinux
	}
}

func ffmpegURL() string {
	// The project only publishes a prebuilt ffmpeg for Windows; other
	// platforms typically carry a distro ffmpeg into the bin directory.
	return ffmpegURLWindows
}

// Check reports which dependencies are present on disk.
func (m *Manager) Check() models.DependencyStatus {
	s := models.DependencyStatus{
		YtDlpPath:  m.ytdlpPath(),
		FFmpegPath: m.ffmpegPath(),
	}
	s.YtDlp = fileExists(s.YtDlpPath)
	s.FFmpeg = fileExists(s.FFmpegPath)
	s.AllAvailable = s.YtDlp && s.FFmpeg

	logging.D(1, "Dependency check: yt-dlp=%v ffmpeg=%v (bin dir %q)", s.YtDlp, s.FFmpeg, m.binDir)
	return s
}

// YtDlpPath returns the local yt-dlp path, or empty when missing.
func (m *Manager) YtDlpPath() string {
	if p := m.ytdlpPath(); fileExists(p) {
		return p
	}
	return ""
}

// FFmpegPath returns the local ffmpeg path, or empty when missing.
func (m *Manager) FFmpegPath() string {
	if p := m.ffmpegPath(); fileExists(p) {
		return p
	}
	return ""
}

// InstallMissing fetches every absent dependency. All fetches must
// succeed; the first failure aborts the batch and is returned.
func (m *Manager) InstallMissing(ctx context.Context, onProgress ProgressFunc) error {
	status := m.Check()

	type fetchSpec struct {
		name string
		url  string
		dest string
	}
	var missing []fetchSpec
	if !status.YtDlp {
		missing = append(missing, fetchSpec{command.YTDLP, ytdlpURL(), m.ytdlpPath()})
	}
	if !status.FFmpeg {
		missing = append(missing, fetchSpec{command.FFmpeg, ffmpegURL(), m.ffmpegPath()})
	}

	if len(missing) == 0 {
		logging.I("All dependencies are already present")
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, spec := range missing {
		wg.Add(1)
		go func(spec fetchSpec) {
			defer wg.Done()
			if err := m.fetchWithRetry(ctx, spec.url, spec.dest, spec.name, onProgress); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(spec)
	}
	wg.Wait()

	if len(errs) != 0 {
		return fmt.Errorf("failed to install dependencies: %w", errors.Join(errs...))
	}
	logging.S("All missing dependencies downloaded successfully")
	return nil
}

// fetchWithRetry retries transient failures with exponential backoff.
// Duplicate in-flight requests and filesystem errors fail immediately.
func (m *Manager) fetchWithRetry(ctx context.Context, url, dest, name string, onProgress ProgressFunc) error {
	delay := consts.RetryInterval
	var lastErr error

	for attempt := 1; attempt <= consts.DefaultMaxRetries; attempt++ {
		_, err := m.fetcher.Fetch(ctx, url, dest, name, onProgress)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, ErrAlreadyInProgress) || isFilesystemError(err) || ctx.Err() != nil {
			return err
		}

		if attempt < consts.DefaultMaxRetries {
			logging.W("Attempt %d to fetch %q failed, retrying in %v: %v", attempt, name, delay, err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}
	return lastErr
}

func isFilesystemError(err error) bool {
	var pathErr *os.PathError
	return errors.As(err, &pathErr)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
