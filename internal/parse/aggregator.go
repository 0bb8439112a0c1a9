package parse

import (
	"path/filepath"
	"strings"

	"downtube/internal/domain/consts"
	"downtube/internal/models"
)

// Completion is the item-completed side effect raised at most once per
// distinct destination path.
type Completion struct {
	Index int
	Total int
	Path  string
	Title string
}

// Aggregator folds parsed events into one job's current download state.
// It is owned by a single supervisor goroutine and is not safe for
// concurrent use.
type Aggregator struct {
	mode consts.DownloadMode

	currentIndex int
	totalItems   int
	currentDest  string
	title        string

	rawPercent    float64
	size          string
	speed         string
	eta           string
	lastSize      string
	indeterminate bool

	// Multiple lines can satisfy the completion condition for one file
	// ("100%", "already downloaded", "Deleting original file"), so
	// completions are deduplicated by destination path.
	completedSet map[string]struct{}
	completed    []string
}

// NewAggregator returns an aggregator for one job.
func NewAggregator(mode consts.DownloadMode) *Aggregator {
	return &Aggregator{
		mode:         mode,
		completedSet: make(map[string]struct{}),
	}
}

// Apply folds one event and returns any completion raised by it.
func (a *Aggregator) Apply(ev Event) []Completion {
	switch ev.Kind {
	case KindItemDelimiter:
		a.currentIndex = ev.Index
		a.totalItems = ev.Total

	case KindDestination:
		a.currentDest = ev.Path
		a.title = titleFromPath(ev.Path)
		// New destination in the same worker process: percent starts over.
		a.rawPercent = 0
		if ev.PostProcess {
			a.indeterminate = true
		}

	case KindPostProcess:
		a.indeterminate = true

	case KindProgress:
		a.rawPercent = ev.Percent
		a.size = ev.Size
		a.speed = ev.Speed
		a.eta = ev.ETA
		a.lastSize = ev.Size
		a.indeterminate = false
		return a.percentCompletion()

	case KindPercentOnly:
		a.rawPercent = ev.Percent
		a.indeterminate = false
		return a.percentCompletion()

	case KindCompletion:
		return a.completeCurrent()
	}
	return nil
}

// percentCompletion raises a completion when raw percent reaches 100 for
// a known destination. The emitting tool may round, so the threshold is
// >= 100, not == 100. Audio jobs finish inside the post-process stage
// and complete via the phrase trigger instead.
func (a *Aggregator) percentCompletion() []Completion {
	if a.mode == consts.ModeAudio {
		return nil
	}
	if a.rawPercent < 100.0 {
		return nil
	}
	return a.completeCurrent()
}

func (a *Aggregator) completeCurrent() []Completion {
	if a.currentDest == "" {
		return nil
	}
	if _, done := a.completedSet[a.currentDest]; done {
		return nil
	}
	a.completedSet[a.currentDest] = struct{}{}
	a.completed = append(a.completed, a.currentDest)

	return []Completion{{
		Index: a.currentIndex,
		Total: a.totalItems,
		Path:  a.currentDest,
		Title: titleFromPath(a.currentDest),
	}}
}

// Fill writes the aggregator's observable state into a job snapshot.
// Percent is clamped for display; the raw value stays internal.
func (a *Aggregator) Fill(j *models.Job) {
	j.Percent = clampPercent(a.rawPercent)
	j.Size = a.size
	j.Speed = a.speed
	j.ETA = a.eta
	j.Indeterminate = a.indeterminate
	j.Title = a.title
	j.Path = a.currentDest
	j.ItemIndex = a.currentIndex
	j.TotalItems = a.totalItems
}

// ProgressPayload builds the push-notification payload for the current state.
func (a *Aggregator) ProgressPayload(id string) models.ProgressPayload {
	kind := "video"
	if a.mode == consts.ModeAudio {
		kind = "audio"
	}
	if a.indeterminate {
		kind = "postprocess"
	}
	return models.ProgressPayload{
		ID:            id,
		Kind:          kind,
		ItemIndex:     a.currentIndex,
		TotalItems:    a.totalItems,
		Percent:       clampPercent(a.rawPercent),
		Size:          a.size,
		Speed:         a.speed,
		ETA:           a.eta,
		Indeterminate: a.indeterminate,
	}
}

// Destinations returns every completed destination in completion order.
func (a *Aggregator) Destinations() []string {
	out := make([]string, len(a.completed))
	copy(out, a.completed)
	return out
}

// CurrentDestination returns the last announced destination path.
func (a *Aggregator) CurrentDestination() string { return a.currentDest }

// Title returns the display title derived from the destination filename.
func (a *Aggregator) Title() string { return a.title }

// LastSize returns the most recent size token seen in a progress line.
func (a *Aggregator) LastSize() string { return a.lastSize }

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return "download"
	}
	return name
}
