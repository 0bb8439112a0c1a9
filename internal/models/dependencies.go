package models

// DependencyStatus reports presence of the external worker binaries.
type DependencyStatus struct {
	YtDlp        bool   `json:"ytdlp"`
	FFmpeg       bool   `json:"ffmpeg"`
	AllAvailable bool   `json:"all_available"`
	YtDlpPath    string `json:"ytdlp_path"`
	FFmpegPath   string `json:"ffmpeg_path"`
}

// DependencyProgress is a throttled progress sample for one binary fetch.
type DependencyProgress struct {
	Name            string  `json:"name"`
	Progress        int     `json:"progress"` // percent, -1 when length unknown
	DownloadedBytes int64   `json:"downloaded_bytes"`
	TotalBytes      int64   `json:"total_bytes"`
	DownloadedMB    float64 `json:"downloaded_mb"`
	TotalMB         float64 `json:"total_mb"`
}
