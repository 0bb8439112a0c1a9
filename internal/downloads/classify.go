package downloads

import (
	"fmt"
	"regexp"
	"strings"
)

// Worker stderr is unstructured; classification maps the common failure
// phrases onto a small fixed set of human-readable causes. Order
// matters: more specific phrases first, generic fallback last.
var workerCauses = []struct {
	rx    *regexp.Regexp
	cause string
}{
	{regexp.MustCompile(`(?i)unable to download`), "Unable to download video. It may be unavailable or restricted."},
	{regexp.MustCompile(`(?i)private video`), "This is a private video and cannot be downloaded."},
	{regexp.MustCompile(`(?i)video unavailable`), "Video is unavailable."},
	{regexp.MustCompile(`(?i)copyright`), "Video cannot be downloaded due to copyright restrictions."},
	{regexp.MustCompile(`(?i)network|connection|timeout`), "Network error. Please check your internet connection."},
	{regexp.MustCompile(`(?i)sign in`), "This video requires signing in."},
	{regexp.MustCompile(`(?i)age.restricted`), "This video is age-restricted and cannot be downloaded."},
}

var errorLineRx = regexp.MustCompile(`(?i)error`)

// classifyWorkerError turns captured stderr and an exit error into one
// human-readable cause string.
func classifyWorkerError(stderr string, exitErr error) string {
	if stderr == "" {
		return fmt.Sprintf("download failed: %v", exitErr)
	}

	for _, c := range workerCauses {
		if c.rx.MatchString(stderr) {
			return c.cause
		}
	}

	// Fall back to the first meaningful error line, truncated.
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !errorLineRx.MatchString(line) {
			continue
		}
		if len(line) > 200 {
			line = line[:200]
		}
		return line
	}

	return fmt.Sprintf("download failed: %v", exitErr)
}
