package registry

import (
	"testing"

	"downtube/internal/domain/consts"
	"downtube/internal/models"
)

func TestAddUpdateGet(t *testing.T) {
	t.Parallel()
	r := New()

	r.Add(models.Job{ID: "a", URL: "https://youtu.be/x", Status: consts.DLStatusQueued})

	r.Update("a", func(j *models.Job) {
		j.Status = consts.DLStatusDownloading
		j.Percent = 42.5
	})

	j, ok := r.Get("a")
	if !ok {
		t.Fatal("job not found after add")
	}
	if j.Status != consts.DLStatusDownloading || j.Percent != 42.5 {
		t.Fatalf("update not applied: %+v", j)
	}

	// Mutating the returned copy must not leak into the registry.
	j.Percent = 99
	again, _ := r.Get("a")
	if again.Percent != 42.5 {
		t.Fatalf("Get returned an alias, not a copy: %+v", again)
	}
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	t.Parallel()
	r := New()

	called := false
	r.Update("ghost", func(j *models.Job) { called = true })
	if called {
		t.Fatal("update callback ran for unknown id")
	}
}

func TestRemoveClearsAllState(t *testing.T) {
	t.Parallel()
	r := New()

	r.Add(models.Job{ID: "a"})
	if _, _, ok := r.MarkCancelled("a"); !ok {
		t.Fatal("expected MarkCancelled to succeed for live job")
	}

	r.Remove("a")
	if _, ok := r.Get("a"); ok {
		t.Fatal("job still present after remove")
	}
	if r.WasCancelled("a") {
		t.Fatal("cancellation flag survived remove")
	}
}

func TestMarkCancelledUnknownJob(t *testing.T) {
	t.Parallel()
	r := New()

	if _, _, ok := r.MarkCancelled("ghost"); ok {
		t.Fatal("MarkCancelled succeeded for unknown job")
	}
	if r.WasCancelled("ghost") {
		t.Fatal("cancellation recorded for unknown job")
	}
}

// TestMarkCancelledBeforeLaunch covers a queued job with no process
// yet: the flag must be recorded with a nil process handle.
func TestMarkCancelledBeforeLaunch(t *testing.T) {
	t.Parallel()
	r := New()

	r.Add(models.Job{ID: "a", Path: "/tmp/partial.mp4"})
	proc, job, ok := r.MarkCancelled("a")
	if !ok {
		t.Fatal("expected MarkCancelled to succeed")
	}
	if proc != nil {
		t.Fatalf("expected nil process before launch, got %v", proc)
	}
	if job.Path != "/tmp/partial.mp4" {
		t.Fatalf("snapshot not returned with cancellation: %+v", job)
	}
	if !r.WasCancelled("a") {
		t.Fatal("cancellation flag not recorded")
	}
}

func TestActiveReturnsAllJobs(t *testing.T) {
	t.Parallel()
	r := New()

	r.Add(models.Job{ID: "a"})
	r.Add(models.Job{ID: "b"})
	r.Add(models.Job{ID: "c"})
	r.Remove("b")

	active := r.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active jobs, got %d", len(active))
	}
	seen := make(map[string]bool, len(active))
	for _, j := range active {
		seen[j.ID] = true
	}
	if !seen["a"] || !seen["c"] || seen["b"] {
		t.Fatalf("wrong active set: %v", seen)
	}
}
