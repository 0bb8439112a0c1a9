package downloads

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"downtube/internal/utils/logging"
)

// cleanupPartials removes the (possibly incomplete) file at destPath,
// its provisional ".part" variant, and any sibling intermediates
// sharing its base name. Best-effort and idempotent; called from every
// terminal-state path that aborts a download.
func cleanupPartials(destPath string) {
	if destPath == "" {
		return
	}
	removeIfExists(destPath)
	removeIfExists(destPath + ".part")
	cleanupResiduals(destPath)
}

// cleanupResiduals drops leftover muxing/transcoding intermediates next
// to destPath: per-format tracks like "name.f137.mp4" and temp files
// like "name.temp.mp4".
func cleanupResiduals(destPath string) {
	if destPath == "" {
		return
	}
	dir := filepath.Dir(destPath)
	base := strings.TrimSuffix(filepath.Base(destPath), filepath.Ext(destPath))
	if base == "" {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.D(2, "Could not read %q for residual cleanup: %v", dir, err)
		return
	}

	quoted := regexp.QuoteMeta(base)
	pattern, err := regexp.Compile(`(?i)^` + quoted + `\.f\d+\.mp4$|^` + quoted + `\.temp\..+`)
	if err != nil {
		return
	}

	for _, e := range entries {
		if e.IsDir() || !pattern.MatchString(e.Name()) {
			continue
		}
		removeIfExists(filepath.Join(dir, e.Name()))
	}
}

func removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.W("Could not remove %q: %v", path, err)
	}
}
