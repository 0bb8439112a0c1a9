// Package models holds the shared data models for download jobs,
// progress events, and persisted history.
package models

import (
	"time"

	"downtube/internal/domain/consts"
)

// DownloadRequest carries the caller-supplied parameters for one
// download submission.
type DownloadRequest struct {
	URL           string `json:"url"`
	Format        string `json:"format"`           // "mp4" or "mp3"
	OutputDir     string `json:"output_dir"`       // empty = default
	Quality       string `json:"quality"`          // target height, e.g. "1080"
	AudioKbps     string `json:"abr_kbps"`         // target audio bitrate
	PlaylistStart int    `json:"playlist_start"`   // 1-based, inclusive
	PlaylistEnd   int    `json:"playlist_end"`     // 1-based, inclusive
}

// HasRange reports whether the request selects a playlist sub-range.
func (r *DownloadRequest) HasRange() bool {
	return r.PlaylistStart > 0 && r.PlaylistEnd > 0 && r.PlaylistEnd >= r.PlaylistStart
}

// Job is the observable snapshot of one download unit. Snapshots are
// copied out of the registry; callers never alias internal state.
type Job struct {
	ID            string                `json:"id"`
	URL           string                `json:"url"`
	Mode          consts.DownloadMode   `json:"format"`
	Status        consts.DownloadStatus `json:"status"`
	Percent       float64               `json:"percent"`
	Size          string                `json:"size,omitempty"`
	Speed         string                `json:"speed,omitempty"`
	ETA           string                `json:"eta,omitempty"`
	Indeterminate bool                  `json:"indeterminate"`
	Title         string                `json:"title,omitempty"`
	Path          string                `json:"path,omitempty"`
	ItemIndex     int                   `json:"item_index"`
	TotalItems    int                   `json:"total_items"`
	StartedAt     time.Time             `json:"started_at"`
}

// BatchResult aggregates the outcome of a batch of related jobs.
type BatchResult struct {
	Total     int    `json:"total_items"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Cancelled int    `json:"cancelled"`
	OutputDir string `json:"out_dir"`
}
