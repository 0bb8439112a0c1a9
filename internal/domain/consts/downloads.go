package consts

// DownloadStatus represents the lifecycle state of a download job.
type DownloadStatus string

const (
	DLStatusQueued      DownloadStatus = "queued"
	DLStatusDownloading DownloadStatus = "downloading"
	DLStatusPostProcess DownloadStatus = "postprocessing"
	DLStatusCompleted   DownloadStatus = "completed"
	DLStatusCancelled   DownloadStatus = "cancelled"
	DLStatusFailed      DownloadStatus = "failed"
)

// Terminal reports whether a status is a terminal state.
func (s DownloadStatus) Terminal() bool {
	switch s {
	case DLStatusCompleted, DLStatusCancelled, DLStatusFailed:
		return true
	}
	return false
}

// Download format modes.
type DownloadMode string

const (
	ModeVideo DownloadMode = "mp4"
	ModeAudio DownloadMode = "mp3"
)

// Concurrency bounds for simultaneous worker processes.
const (
	MinConcurrency     = 1
	MaxConcurrency     = 5
	DefaultConcurrency = 3
)

// HistoryRetention caps the persisted completion log; oldest entries
// beyond this count are dropped.
const HistoryRetention = 500
