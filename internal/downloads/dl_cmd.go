package downloads

import (
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"downtube/internal/domain/command"
	"downtube/internal/domain/consts"
	"downtube/internal/utils/logging"
)

var (
	heightRx = regexp.MustCompile(`(?i)^(144|240|360|480|720|1080|1440|2160)p?$`)
	kbpsRx   = regexp.MustCompile(`^\d+$`)
	digitsRx = regexp.MustCompile(`[^0-9]`)
)

// buildCommand builds the yt-dlp invocation for this job: robustness
// flags, output pattern, optional playlist range, and a format selector
// driven by mode and the optional quality hint.
func (d *Download) buildCommand(ctx context.Context) *exec.Cmd {
	args := make([]string, 0, 24)

	outputPattern := filepath.ToSlash(filepath.Join(d.OutDir, command.FilenameSyntax))

	args = append(args,
		command.Newline,
		command.IgnoreErrors,
		command.NoAbortOnUnavailFrag,
		command.WindowsFilenames,
		command.NoPart,
		command.NoKeepFragments,
		command.Output, outputPattern,
	)

	if loc := d.Binaries.FFmpegPath(); loc != "" {
		args = append(args, command.FFmpegLocation, loc)
	}

	if d.ItemStart > 0 {
		args = append(args, command.PlaylistStart, strconv.Itoa(d.ItemStart))
	}
	if d.ItemEnd > 0 {
		args = append(args, command.PlaylistEnd, strconv.Itoa(d.ItemEnd))
	}

	switch d.Mode {
	case consts.ModeAudio:
		// Audio extraction honoring the requested bitrate.
		targetAbr := "192K"
		if kbpsRx.MatchString(d.Req.AudioKbps) {
			targetAbr = d.Req.AudioKbps + "K"
		}
		args = append(args,
			command.ExtractAudio,
			command.AudioFormat, "mp3",
			command.AudioQuality, targetAbr,
		)

	default:
		// MP4 selector honoring a desired height when provided.
		videoSelector := "bv*[ext=mp4]"
		if heightRx.MatchString(d.Req.Quality) {
			h := digitsRx.ReplaceAllString(d.Req.Quality, "")
			videoSelector = "bv*[ext=mp4][height<=" + h + "][height>=" + h + "]"
		}
		args = append(args,
			command.Format, videoSelector+"+ba[ext=m4a]/b[ext=mp4]/bv*+ba/b",
			command.MergeOutputFormat, "mp4",
		)
	}

	// Target URL must go last.
	args = append(args, d.Req.URL)

	cmd := exec.CommandContext(ctx, d.Binaries.YtDlpPath(), args...)
	logging.D(1, "Built download command for URL %q:\n%v", d.Req.URL, cmd.String())

	return cmd
}
