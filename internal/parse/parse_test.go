package parse

import "testing"

// TestLineMatching checks every recognized line shape and a few that
// must not match.
func TestLineMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		ok   bool
		want Event
	}{
		{
			name: "item delimiter",
			line: "[youtube:tab] Playlist Mixtape: Downloading item 3 of 10",
			ok:   true,
			want: Event{Kind: KindItemDelimiter, Index: 2, Total: 10},
		},
		{
			name: "destination",
			line: "[download] Destination: /tmp/My Video.mp4",
			ok:   true,
			want: Event{Kind: KindDestination, Path: "/tmp/My Video.mp4"},
		},
		{
			name: "extract audio destination carries the stage marker",
			line: "[ExtractAudio] Destination: /tmp/song.mp3",
			ok:   true,
			want: Event{Kind: KindDestination, Path: "/tmp/song.mp3", PostProcess: true},
		},
		{
			name: "ffmpeg stage",
			line: "[ffmpeg] Merging formats into \"/tmp/My Video.mp4\"",
			ok:   true,
			want: Event{Kind: KindPostProcess},
		},
		{
			name: "strict progress",
			line: "[download]   5.6% of 12.34MiB at 1.23MiB/s ETA 00:12",
			ok:   true,
			want: Event{Kind: KindProgress, Percent: 5.6, Size: "12.34MiB", Speed: "1.23MiB/s", ETA: "00:12"},
		},
		{
			name: "loose progress with unknown tokens",
			line: "[download]  12.3% of ~ 5.00MiB at Unknown speed ETA 01:23",
			ok:   true,
			want: Event{Kind: KindProgress, Percent: 12.3, Size: "~ 5.00MiB", Speed: "Unknown speed", ETA: "01:23"},
		},
		{
			name: "percent only",
			line: "[download]  45.2%",
			ok:   true,
			want: Event{Kind: KindPercentOnly, Percent: 45.2},
		},
		{
			name: "completion via deletion",
			line: "Deleting original file /tmp/vid.f137.mp4 (pass -k to keep)",
			ok:   true,
			want: Event{Kind: KindCompletion},
		},
		{
			name: "completion via already downloaded",
			line: "[download] /tmp/vid.mp4 has already been downloaded",
			ok:   true,
			want: Event{Kind: KindCompletion},
		},
		{
			name: "empty line",
			line: "",
			ok:   false,
		},
		{
			name: "whitespace line",
			line: "   ",
			ok:   false,
		},
		{
			name: "unrecognized chatter",
			line: "[youtube] abc123: Downloading webpage",
			ok:   false,
		},
	}

	for _, tc := range tests {
		got, ok := Line(tc.line)
		if ok != tc.ok {
			t.Fatalf("%s: matched=%v, want %v (line %q)", tc.name, ok, tc.ok, tc.line)
		}
		if !tc.ok {
			continue
		}
		if got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

// TestMatcherOrder ensures the strict progress pattern wins before the
// loose fallback, and both before the bare-percent pattern.
func TestMatcherOrder(t *testing.T) {
	t.Parallel()

	ev, ok := Line("[download] 100.0% of 10.00MiB at 2.00MiB/s ETA 00:00")
	if !ok || ev.Kind != KindProgress {
		t.Fatalf("expected strict progress event, got %+v (matched=%v)", ev, ok)
	}
	if ev.Size != "10.00MiB" || ev.Speed != "2.00MiB/s" {
		t.Fatalf("strict fields not populated: %+v", ev)
	}
}
