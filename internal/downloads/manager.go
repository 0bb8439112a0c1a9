package downloads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"downtube/internal/domain/consts"
	"downtube/internal/models"
	"downtube/internal/registry"
	"downtube/internal/utils/logging"

	"github.com/google/uuid"
)

// Manager is the job-control surface: it admits download requests under
// the concurrency cap, routes cancellations, and exposes job snapshots.
type Manager struct {
	opts     Options
	registry *registry.Registry
	binaries BinaryLocator
	history  HistoryStore
	notify   models.Notifier
}

// NewManager creates a download manager with the given collaborators.
func NewManager(opts *Options, reg *registry.Registry, bins BinaryLocator, hist HistoryStore, notify models.Notifier) *Manager {
	o := DefaultOptions
	if opts != nil {
		o = *opts
	}
	o.Concurrency = clampConcurrency(o.Concurrency)
	if o.InactivityTimeout <= 0 {
		o.InactivityTimeout = consts.WorkerInactivityTimeout
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir()
	}
	if o.ProbeRetries <= 0 {
		o.ProbeRetries = DefaultOptions.ProbeRetries
	}

	return &Manager{
		opts:     o,
		registry: reg,
		binaries: bins,
		history:  hist,
		notify:   notify,
	}
}

// DefaultOutputDir returns the fallback download directory.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "DownTube")
	}
	return filepath.Join(home, "Downloads", "DownTube")
}

func clampConcurrency(n int) int {
	if n < consts.MinConcurrency {
		return consts.MinConcurrency
	}
	if n > consts.MaxConcurrency {
		return consts.MaxConcurrency
	}
	return n
}

// Submit validates the request, registers one queued job per requested
// item, and starts the batch scheduler. Returns the admitted job ids in
// request order.
func (m *Manager) Submit(ctx context.Context, req models.DownloadRequest) ([]string, error) {
	if err := validateSourceURL(req.URL); err != nil {
		return nil, err
	}

	outDir := req.OutputDir
	if outDir == "" {
		outDir = m.opts.OutputDir
	}
	if err := validateOutputDir(outDir); err != nil {
		return nil, err
	}

	if m.binaries.YtDlpPath() == "" {
		return nil, fmt.Errorf("yt-dlp not found; install dependencies first")
	}

	mode := modeOf(req.Format)

	// A playlist range expands into one job per index; everything else
	// is a batch of one through the same admission path.
	var items []int
	if req.HasRange() {
		for i := req.PlaylistStart; i <= req.PlaylistEnd; i++ {
			items = append(items, i)
		}
	} else {
		items = []int{0}
	}

	ids := make([]string, len(items))
	now := time.Now()
	for i := range items {
		ids[i] = uuid.NewString()
		m.registry.Add(models.Job{
			ID:        ids[i],
			URL:       req.URL,
			Mode:      mode,
			Status:    consts.DLStatusQueued,
			StartedAt: now,
		})
	}

	// The batch outlives the submitter: a caller hanging up (e.g. an
	// HTTP request context closing after the response) must not kill
	// admitted workers. Cancellation goes through the registry instead.
	go m.runBatch(context.Background(), req, mode, outDir, ids, items)
	return ids, nil
}

// runBatch drains the item queue under the concurrency cap. Admission
// order matches request order; a finishing worker frees a slot for the
// next queued item. One aggregate notification fires when every item
// reaches a terminal state.
func (m *Manager) runBatch(ctx context.Context, req models.DownloadRequest, mode consts.DownloadMode, outDir string, ids []string, items []int) {
	total := len(items)
	workers := m.opts.Concurrency
	if workers > total {
		workers = total
	}

	queue := make(chan int, total)
	for pos := range items {
		queue <- pos
	}
	close(queue)

	var (
		wg        sync.WaitGroup
		completed atomic.Int64
		failed    atomic.Int64
		cancelled atomic.Int64
	)

	logging.I("Starting batch of %d item(s) for %q with concurrency %d", total, req.URL, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range queue {
				switch m.runItem(ctx, req, mode, outDir, ids[pos], items[pos]) {
				case consts.DLStatusCompleted:
					completed.Add(1)
				case consts.DLStatusCancelled:
					cancelled.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	m.notify.Notify(models.Event{
		Type: models.EventDownloadComplete,
		At:   time.Now(),
		Payload: models.BatchResult{
			Total:     total,
			Completed: int(completed.Load()),
			Failed:    int(failed.Load()),
			Cancelled: int(cancelled.Load()),
			OutputDir: outDir,
		},
	})
}

// runItem supervises one job to its terminal state and reports the
// status it ended in.
func (m *Manager) runItem(ctx context.Context, req models.DownloadRequest, mode consts.DownloadMode, outDir, id string, item int) consts.DownloadStatus {
	// A queued job may have been cancelled before its slot opened.
	if m.registry.WasCancelled(id) {
		m.registry.Remove(id)
		m.notify.Notify(models.Event{
			Type:    models.EventDownloadCancelled,
			At:      time.Now(),
			Payload: models.CancelPayload{ID: id},
		})
		return consts.DLStatusCancelled
	}

	d := &Download{
		ID:         id,
		Req:        req,
		Mode:       mode,
		OutDir:     outDir,
		Inactivity: m.opts.InactivityTimeout,
		Registry:   m.registry,
		Binaries:   m.binaries,
		History:    m.history,
		Notify:     m.notify,
	}
	if item > 0 {
		d.ItemStart, d.ItemEnd = item, item
	} else {
		// Whole-source job: pass through any one-sided range hints.
		d.ItemStart, d.ItemEnd = req.PlaylistStart, req.PlaylistEnd
	}

	res := d.Run(ctx)
	return res.Status
}

// Cancel records a cancellation for id, kills its worker process tree
// if one is running, and removes any known partial file. Returns false
// when the job is unknown or already terminal.
func (m *Manager) Cancel(id string) bool {
	proc, job, ok := m.registry.MarkCancelled(id)
	if !ok {
		return false
	}

	if proc != nil {
		if err := killProcessTree(proc); err != nil {
			logging.E("Failed to kill process for job %s: %v", id, err)
		}
	}
	if job.Path != "" {
		cleanupPartials(job.Path)
	}
	return true
}

// Active returns snapshots of all live jobs.
func (m *Manager) Active() []models.Job {
	return m.registry.Active()
}

// Job returns the snapshot for one job id.
func (m *Manager) Job(id string) (models.Job, bool) {
	return m.registry.Get(id)
}
