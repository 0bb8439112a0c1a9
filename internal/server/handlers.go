package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"downtube/internal/dependencies"
	"downtube/internal/models"

	"github.com/go-chi/chi/v5"
)

// handleStartDownload admits a download request and returns the job ids.
func handleStartDownload(w http.ResponseWriter, r *http.Request) {
	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ids, err := dl.Submit(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"ids":   ids,
		"total": len(ids),
	})
}

// handleListDownloads lists snapshots of all live jobs.
func handleListDownloads(w http.ResponseWriter, r *http.Request) {
	jobs := dl.Active()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(jobs); err != nil {
		http.Error(w, "failed to encode JSON", http.StatusInternalServerError)
	}
}

// handleGetDownload returns the snapshot for one job.
func handleGetDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	j, found := dl.Job(id)
	if !found {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(j)
}

// handleCancelDownload delivers a cancellation for one job.
func handleCancelDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !dl.Cancel(id) {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleListHistory returns the persisted completion log.
func handleListHistory(w http.ResponseWriter, r *http.Request) {
	records, err := hs.List(r.Context())
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// handleClearHistory deletes every history record.
func handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := hs.Clear(r.Context()); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCheckDependencies reports presence of the worker binaries.
func handleCheckDependencies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deps.Check())
}

// handleInstallDependencies fetches missing worker binaries, streaming
// progress into the event feed.
func handleInstallDependencies(w http.ResponseWriter, r *http.Request) {
	err := deps.InstallMissing(r.Context(), dependencyProgressNotifier())
	if err != nil {
		notifyDependencyComplete(false, err)
		http.Error(w, fmt.Sprintf("dependency install failed: %v", err), http.StatusBadGateway)
		return
	}

	notifyDependencyComplete(true, nil)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deps.Check())
}

func dependencyProgressNotifier() dependencies.ProgressFunc {
	return func(p models.DependencyProgress) {
		events.Notify(models.Event{
			Type:    models.EventDependencyProgress,
			At:      time.Now(),
			Payload: p,
		})
	}
}

func notifyDependencyComplete(ok bool, err error) {
	payload := map[string]any{"success": ok}
	if err != nil {
		payload["error"] = err.Error()
	}
	events.Notify(models.Event{
		Type:    models.EventDependencyComplete,
		At:      time.Now(),
		Payload: payload,
	})
}

// handleProbeFormats lists available qualities for a source URL.
func handleProbeFormats(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")

	probe, err := dl.ProbeFormats(r.Context(), url)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(probe)
}

// handleFetchInfo resolves single-vs-playlist and item count for a URL.
func handleFetchInfo(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")

	info, err := dl.FetchInfo(r.Context(), url)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// handleEvents drains the push-notification feed from a sequence number.
func handleEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	if s := r.URL.Query().Get("since"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = v
	}

	evs, next := events.Since(since)
	if evs == nil {
		evs = []SeqEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"events": evs,
		"next":   next,
	})
}
