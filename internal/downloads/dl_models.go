// Package downloads supervises external worker processes for download
// jobs: argument building, output parsing, bounded-concurrency batch
// scheduling, cancellation, and terminal-state cleanup.
package downloads

import (
	"context"
	"time"

	"downtube/internal/domain/consts"
	"downtube/internal/models"
	"downtube/internal/registry"
)

// HistoryStore persists one record per completed destination.
type HistoryStore interface {
	Append(ctx context.Context, rec models.HistoryRecord) error
}

// BinaryLocator resolves local worker binary paths. Empty means missing.
type BinaryLocator interface {
	YtDlpPath() string
	FFmpegPath() string
}

// Options holds configuration for download operations.
type Options struct {
	OutputDir         string
	Concurrency       int
	InactivityTimeout time.Duration
	ProbeRetries      int
}

// DefaultOptions provides sensible defaults.
var DefaultOptions = Options{
	Concurrency:       consts.DefaultConcurrency,
	InactivityTimeout: consts.WorkerInactivityTimeout,
	ProbeRetries:      2,
}

// Result is the terminal outcome of one supervised worker process.
type Result struct {
	Status       consts.DownloadStatus // completed, cancelled or failed
	Err          error
	Destinations []string
}

// Download supervises one worker process for one job.
type Download struct {
	ID   string
	Req  models.DownloadRequest
	Mode consts.DownloadMode

	// Playlist index this supervisor is restricted to; zero = whole source.
	ItemStart int
	ItemEnd   int

	OutDir     string
	Inactivity time.Duration

	Registry *registry.Registry
	Binaries BinaryLocator
	History  HistoryStore
	Notify   models.Notifier
}

func modeOf(format string) consts.DownloadMode {
	if consts.DownloadMode(format) == consts.ModeAudio {
		return consts.ModeAudio
	}
	return consts.ModeVideo
}
