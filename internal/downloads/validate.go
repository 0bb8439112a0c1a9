package downloads

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var sourceURLRx = regexp.MustCompile(`(?i)^https?://(www\.)?(youtube\.com|youtu\.be|music\.youtube\.com)/.+`)

// validateSourceURL rejects malformed or unsupported source references.
// Validation failures are never retried.
func validateSourceURL(url string) error {
	if url == "" {
		return fmt.Errorf("no URL provided")
	}
	if !sourceURLRx.MatchString(url) {
		return fmt.Errorf("unsupported source URL: %q", url)
	}
	return nil
}

// validateOutputDir ensures the output directory exists and is
// writable, probing with a throwaway file.
func validateOutputDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("no output directory provided")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory %q: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write-check")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("cannot write to output directory %q: %w", dir, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("cannot clean up in output directory %q: %w", dir, err)
	}
	return nil
}
