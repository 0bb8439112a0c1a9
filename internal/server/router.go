// Package server exposes the job-control surface over HTTP.
package server

import (
	"net/http"

	"downtube/internal/dependencies"
	"downtube/internal/downloads"
	"downtube/internal/history"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var (
	dl     *downloads.Manager
	hs     *history.Store
	deps   *dependencies.Manager
	events *EventLog
)

const DefaultPort = "8827"

// NewRouter returns an http Handler serving the job-control API.
func NewRouter(manager *downloads.Manager, store *history.Store, depMgr *dependencies.Manager, log *EventLog) http.Handler {
	// Inject collaborators
	dl = manager
	hs = store
	deps = depMgr
	events = log

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/downloads", func(r chi.Router) {
			r.Get("/", handleListDownloads)
			r.Post("/", handleStartDownload)
			r.Get("/{id}", handleGetDownload)
			r.Delete("/{id}", handleCancelDownload)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", handleListHistory)
			r.Delete("/", handleClearHistory)
		})

		r.Route("/dependencies", func(r chi.Router) {
			r.Get("/", handleCheckDependencies)
			r.Post("/install", handleInstallDependencies)
		})

		r.Get("/probe/formats", handleProbeFormats)
		r.Get("/probe/info", handleFetchInfo)

		r.Get("/events", handleEvents)
	})

	return r
}
