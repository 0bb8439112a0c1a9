package models

import "time"

// Event channel names, mirroring the push notifications relayed to the
// caller's sink.
const (
	EventProgress           = "download-progress"
	EventItemComplete       = "download-item-complete"
	EventDownloadComplete   = "download-complete"
	EventDownloadError      = "download-error"
	EventDownloadCancelled  = "download-cancelled"
	EventDependencyProgress = "dependency-download-progress"
	EventDependencyComplete = "dependency-download-complete"
)

// Event is one push notification. Payload shape depends on Type.
type Event struct {
	Type    string      `json:"type"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload"`
}

// ProgressPayload reports a progress sample (or post-process phase
// change) for one job.
type ProgressPayload struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"` // "video", "audio" or "postprocess"
	ItemIndex     int     `json:"item_index,omitempty"`
	TotalItems    int     `json:"total_items,omitempty"`
	Percent       float64 `json:"percent"`
	Size          string  `json:"size,omitempty"`
	Speed         string  `json:"speed,omitempty"`
	ETA           string  `json:"eta,omitempty"`
	Indeterminate bool    `json:"indeterminate"`
}

// ItemCompletePayload fires exactly once per distinct destination path.
type ItemCompletePayload struct {
	ID         string `json:"id"`
	ItemIndex  int    `json:"item_index"`
	TotalItems int    `json:"total_items,omitempty"`
	Path       string `json:"path"`
	Title      string `json:"title"`
}

// ErrorPayload describes a terminal failure for one job.
type ErrorPayload struct {
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
	Type    string `json:"error_type,omitempty"`
}

// CancelPayload acknowledges a cancellation.
type CancelPayload struct {
	ID string `json:"id"`
}

// Notifier is the output sink the core posts push notifications to.
type Notifier interface {
	Notify(e Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(e Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(e Event) { f(e) }
