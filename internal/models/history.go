package models

import (
	"time"

	"downtube/internal/domain/consts"
)

// HistoryRecord is one immutable completion entry, appended per
// distinct destination after a successful download.
type HistoryRecord struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Path        string              `json:"path"`
	Mode        consts.DownloadMode `json:"format"`
	Size        string              `json:"size,omitempty"`
	CompletedAt time.Time           `json:"completed_at"`
}
