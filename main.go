package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"downtube/internal/cfg"
	"downtube/internal/dependencies"
	"downtube/internal/domain/keys"
	"downtube/internal/downloads"
	"downtube/internal/history"
	"downtube/internal/registry"
	"downtube/internal/server"
	"downtube/internal/utils/logging"
)

var startTime time.Time

func init() {
	startTime = time.Now()
}

func main() {
	if err := cfg.InitCommands(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !cfg.GetBool("execute") {
		return // Exit early if not meant to execute (e.g. --help)
	}

	// Output directory setup
	outDir := cfg.GetString(keys.OutputDir)
	if outDir == "" {
		outDir = downloads.DefaultOutputDir()
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create directory structure:", err)
		os.Exit(1)
	}

	// Application data directory, holds logs, history and binaries
	dataDir, err := appDataDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Setup logging
	if err := logging.SetupLogging(dataDir); err != nil {
		fmt.Printf("\n\nNotice: Log file was not created\nReason: %s\n\n", err)
	}
	logging.I("downtube started at: %v", startTime.Format("2006-01-02 15:04:05.00 MST"))

	if err := run(outDir, dataDir); err != nil {
		logging.E("%v", err)
		os.Exit(1)
	}
}

// run wires collaborators and serves the HTTP API until it fails.
func run(outDir, dataDir string) error {
	binDir := cfg.GetString(keys.BinDir)
	if binDir == "" {
		binDir = filepath.Join(dataDir, "bin")
	}

	hs, err := history.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() {
		if err := hs.Close(); err != nil {
			logging.E("Failed to close history store: %v", err)
		}
	}()

	deps, err := dependencies.NewManager(binDir)
	if err != nil {
		return fmt.Errorf("failed to init dependency manager: %w", err)
	}
	if status := deps.Check(); !status.AllAvailable {
		logging.W("Missing dependencies (yt-dlp=%v ffmpeg=%v), install them via the API before downloading", status.YtDlp, status.FFmpeg)
	}

	events := server.NewEventLog(1024)
	reg := registry.New()

	opts := &downloads.Options{
		OutputDir:         outDir,
		Concurrency:       cfg.GetInt(keys.ConcurrencyLimit),
		InactivityTimeout: time.Duration(cfg.GetInt(keys.InactivityTimeout)) * time.Second,
		ProbeRetries:      cfg.GetInt(keys.DLRetries),
	}
	dl := downloads.NewManager(opts, reg, deps, hs, events)

	port := cfg.GetString(keys.Port)
	if port == "" {
		port = server.DefaultPort
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server.NewRouter(dl, hs, deps, events),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.I("Serving API on port %s (downloads to %q)", port, outDir)
	return srv.ListenAndServe()
}

// appDataDir returns the per-user application directory, creating it if
// needed.
func appDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	dir := filepath.Join(base, "downtube")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create app data directory %q: %w", dir, err)
	}
	return dir, nil
}
