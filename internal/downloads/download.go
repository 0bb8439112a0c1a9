package downloads

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"downtube/internal/domain/consts"
	"downtube/internal/models"
	"downtube/internal/parse"
	"downtube/internal/utils/logging"
)

// Run launches the worker process and supervises it to a terminal
// state. Events are observed in the order the worker emitted them; the
// registry entry for this job is removed before Run returns.
func (d *Download) Run(ctx context.Context) Result {
	defer d.Registry.Remove(d.ID)

	procCtx, cancelProc := context.WithCancel(ctx)
	defer cancelProc()

	cmd := d.buildCommand(procCtx)
	setProcGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return d.fail(fmt.Errorf("stdout pipe error: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return d.fail(fmt.Errorf("stderr pipe error: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return d.fail(fmt.Errorf("failed to start %s: %w", d.Binaries.YtDlpPath(), err))
	}

	d.Registry.SetProcess(d.ID, cmd.Process)
	d.Registry.Update(d.ID, func(j *models.Job) {
		j.Status = consts.DLStatusDownloading
	})

	// Merge stdout and stderr into lineChan, keeping a copy of stderr
	// for failure classification.
	lineChan := make(chan string, 100)
	var (
		scanWG    sync.WaitGroup
		stderrMu  sync.Mutex
		stderrBuf strings.Builder
	)
	scanWG.Add(2)
	go func() {
		defer scanWG.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			select {
			case lineChan <- scanner.Text():
			case <-procCtx.Done():
				return
			}
		}
	}()
	go func() {
		defer scanWG.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()
			stderrMu.Lock()
			stderrBuf.WriteString(line)
			stderrBuf.WriteString("\n")
			stderrMu.Unlock()
			select {
			case lineChan <- line:
			case <-procCtx.Done():
				return
			}
		}
	}()
	go func() {
		scanWG.Wait()
		close(lineChan)
	}()

	// Liveness guard: a worker that neither progresses nor exits is
	// force-killed after the inactivity window. Any output line resets it.
	var timedOut atomic.Bool
	watchdog := time.AfterFunc(d.Inactivity, func() {
		timedOut.Store(true)
		logging.E("No output from worker for %v, killing job %s", d.Inactivity, d.ID)
		if err := killProcessTree(cmd.Process); err != nil {
			logging.E("Failed to kill process %d: %v", cmd.Process.Pid, err)
		}
	})

	agg := parse.NewAggregator(d.Mode)
	var completions []parse.Completion

	for line := range lineChan {
		watchdog.Reset(d.Inactivity)
		if line != "" {
			logging.D(4, "Job %s worker output: %q", d.ID, line)
		}

		ev, ok := parse.Line(line)
		if !ok {
			continue
		}
		done := agg.Apply(ev)
		d.publishState(agg, ev)

		for _, c := range done {
			completions = append(completions, c)
			d.Notify.Notify(models.Event{
				Type: models.EventItemComplete,
				At:   time.Now(),
				Payload: models.ItemCompletePayload{
					ID:         d.ID,
					ItemIndex:  c.Index,
					TotalItems: c.Total,
					Path:       c.Path,
					Title:      c.Title,
				},
			})
		}
	}
	// The watchdog stays armed through Wait: a worker that closed its
	// stdio but never exits must still get killed.
	waitErr := cmd.Wait()
	watchdog.Stop()
	d.Registry.ClearProcess(d.ID)

	switch {
	case d.Registry.WasCancelled(d.ID):
		return d.resolveCancelled(agg)

	case timedOut.Load() && waitErr != nil:
		d.cleanupAfterAbort(agg)
		return d.fail(fmt.Errorf("download timed out: no output received for %v", d.Inactivity))

	case waitErr != nil:
		d.cleanupAfterAbort(agg)
		stderrMu.Lock()
		captured := stderrBuf.String()
		stderrMu.Unlock()
		return d.fail(fmt.Errorf("%s", classifyWorkerError(captured, waitErr)))

	default:
		return d.resolveCompleted(agg, completions)
	}
}

// publishState mirrors the aggregator into the registry snapshot and
// raises a progress notification. Sampling/throttling is left to the
// consumer; every state change is reported.
func (d *Download) publishState(agg *parse.Aggregator, ev parse.Event) {
	postProcess := ev.Kind == parse.KindPostProcess ||
		(ev.Kind == parse.KindDestination && ev.PostProcess)

	d.Registry.Update(d.ID, func(j *models.Job) {
		agg.Fill(j)
		if postProcess {
			j.Status = consts.DLStatusPostProcess
		}
	})

	if postProcess || ev.Kind == parse.KindProgress || ev.Kind == parse.KindPercentOnly {
		d.Notify.Notify(models.Event{
			Type:    models.EventProgress,
			At:      time.Now(),
			Payload: agg.ProgressPayload(d.ID),
		})
	}
}

func (d *Download) resolveCancelled(agg *parse.Aggregator) Result {
	logging.I("Job %s cancelled, cleaning up partial files", d.ID)
	cleanupPartials(agg.CurrentDestination())

	d.Notify.Notify(models.Event{
		Type:    models.EventDownloadCancelled,
		At:      time.Now(),
		Payload: models.CancelPayload{ID: d.ID},
	})
	return Result{Status: consts.DLStatusCancelled}
}

func (d *Download) resolveCompleted(agg *parse.Aggregator, completions []parse.Completion) Result {
	// Some workflows exit successfully without a clean completion line;
	// fall back to the last announced destination.
	if len(completions) == 0 && agg.CurrentDestination() != "" {
		completions = []parse.Completion{{
			Path:  agg.CurrentDestination(),
			Title: agg.Title(),
		}}
	}

	dests := make([]string, 0, len(completions))
	now := time.Now()
	for _, c := range completions {
		dests = append(dests, c.Path)

		if err := d.History.Append(context.Background(), models.HistoryRecord{
			Title:       c.Title,
			Path:        c.Path,
			Mode:        d.Mode,
			Size:        agg.LastSize(),
			CompletedAt: now,
		}); err != nil {
			logging.E("Failed to append history record for %q: %v", c.Path, err)
		}

		// Residual transcoding intermediates share the destination's
		// base name; drop them best-effort.
		cleanupResiduals(c.Path)
	}

	logging.S("Job %s completed with %d destination(s)", d.ID, len(dests))
	return Result{Status: consts.DLStatusCompleted, Destinations: dests}
}

// cleanupAfterAbort removes partial artifacts after a failed run.
func (d *Download) cleanupAfterAbort(agg *parse.Aggregator) {
	if dest := agg.CurrentDestination(); dest != "" {
		cleanupPartials(dest)
	}
}

func (d *Download) fail(err error) Result {
	logging.E("Job %s failed: %v", d.ID, err)
	d.Notify.Notify(models.Event{
		Type:    models.EventDownloadError,
		At:      time.Now(),
		Payload: models.ErrorPayload{ID: d.ID, Message: err.Error()},
	})
	return Result{Status: consts.DLStatusFailed, Err: err}
}
