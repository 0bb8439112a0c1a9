// Package parse converts yt-dlp terminal output into typed progress
// events and folds those events into per-job download state.
//
// The worker's output is unstructured human-readable text with no
// machine contract, so parsing is defensive: an ordered list of
// matchers is evaluated per line, first match wins, and a line no
// matcher recognizes yields no event.
package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// EventKind discriminates parsed line events.
type EventKind int

const (
	// KindItemDelimiter switches the frame of reference to a new
	// playlist item ("Downloading item K of N").
	KindItemDelimiter EventKind = iota
	// KindDestination announces the authoritative output path.
	KindDestination
	// KindPostProcess marks the start of an audio-extract/remux stage.
	KindPostProcess
	// KindProgress carries percent plus size/speed/ETA metadata.
	KindProgress
	// KindPercentOnly carries a bare percent with no metadata.
	KindPercentOnly
	// KindCompletion marks the current destination as finished.
	KindCompletion
)

// Event is one parsed output line. Fields are populated according to Kind.
type Event struct {
	Kind    EventKind
	Index   int // zero-based item index
	Total   int
	Path    string
	Percent float64
	Size    string
	Speed   string
	ETA     string

	// PostProcess marks a destination announced by a post-processing
	// stage, e.g. "[ExtractAudio] Destination: ...". Such a line both
	// names the output path and signals the stage switch.
	PostProcess bool
}

// Matcher order matters: the strict progress pattern must run before the
// loose fallback, and both before the bare-percent pattern.
var (
	itemRx = regexp.MustCompile(`(?i)Downloading item (\d+) of (\d+)`)
	destRx = regexp.MustCompile(`(?i)Destination:\s(.+)`)
	postRx = regexp.MustCompile(`(?i)\[(ExtractAudio|ffmpeg)\]`)

	// e.g. "[download]   5.6% of 12.34MiB at 1.23MiB/s ETA 00:12"
	progressRx = regexp.MustCompile(`(?i)\[download\]\s+(\d+\.?\d*)%\s+of\s+([\d.]+\w+i?B)\s+at\s+([\d.]+\w+i?B/s)\s+ETA\s+([\d:]+)`)
	// Loose fallback tolerating "Unknown size" / "Unknown speed" tokens.
	progressLooseRx = regexp.MustCompile(`(?i)\[download\]\s+(\d+\.?\d*)%\s+of\s+(.+?)\s+at\s+(.+?)\s+ETA\s+([\d:]+)`)
	percentRx       = regexp.MustCompile(`(?i)\[download\]\s+(\d+\.?\d*)%`)

	completionRx = regexp.MustCompile(`(?i)Deleting original file|has already been downloaded`)
)

type matcher func(line string) (Event, bool)

var matchers = []matcher{
	matchItem,
	matchDestination,
	matchPostProcess,
	matchProgress,
	matchPercentOnly,
	matchCompletion,
}

// Line parses one worker output line into at most one event.
func Line(line string) (Event, bool) {
	if strings.TrimSpace(line) == "" {
		return Event{}, false
	}
	for _, m := range matchers {
		if ev, ok := m(line); ok {
			return ev, true
		}
	}
	return Event{}, false
}

func matchItem(line string) (Event, bool) {
	m := itemRx.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return Event{}, false
	}
	total, err := strconv.Atoi(m[2])
	if err != nil {
		return Event{}, false
	}
	return Event{Kind: KindItemDelimiter, Index: idx - 1, Total: total}, true
}

func matchDestination(line string) (Event, bool) {
	m := destRx.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	return Event{
		Kind:        KindDestination,
		Path:        strings.TrimSpace(m[1]),
		PostProcess: postRx.MatchString(line),
	}, true
}

func matchPostProcess(line string) (Event, bool) {
	if !postRx.MatchString(line) {
		return Event{}, false
	}
	return Event{Kind: KindPostProcess}, true
}

func matchProgress(line string) (Event, bool) {
	m := progressRx.FindStringSubmatch(line)
	if m == nil {
		m = progressLooseRx.FindStringSubmatch(line)
	}
	if m == nil {
		return Event{}, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Event{}, false
	}
	return Event{
		Kind:    KindProgress,
		Percent: pct,
		Size:    strings.TrimSpace(m[2]),
		Speed:   strings.TrimSpace(m[3]),
		ETA:     strings.TrimSpace(m[4]),
	}, true
}

func matchPercentOnly(line string) (Event, bool) {
	m := percentRx.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Event{}, false
	}
	return Event{Kind: KindPercentOnly, Percent: pct}, true
}

func matchCompletion(line string) (Event, bool) {
	if !completionRx.MatchString(line) {
		return Event{}, false
	}
	return Event{Kind: KindCompletion}, true
}
