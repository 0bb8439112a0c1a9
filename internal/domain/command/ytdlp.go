// Package command holds argument constants for the external worker binaries.
package command

// Binary names
const (
	YTDLP  = "yt-dlp"
	FFmpeg = "ffmpeg"
)

// General
const (
	Newline              = "--newline"
	IgnoreErrors         = "--ignore-errors"
	NoAbortOnUnavailFrag = "--no-abort-on-unavailable-fragment"
	WindowsFilenames     = "--windows-filenames"
	NoPart               = "--no-part"
	NoKeepFragments      = "--no-keep-fragments"
	Output               = "-o"
	FFmpegLocation       = "--ffmpeg-location"
	FilenameSyntax       = "%(title)s.%(ext)s"
)

// Format selection
const (
	Format            = "-f"
	MergeOutputFormat = "--merge-output-format"
	ExtractAudio      = "-x"
	AudioFormat       = "--audio-format"
	AudioQuality      = "--audio-quality"
)

// Playlist ranges
const (
	PlaylistStart = "--playlist-start"
	PlaylistEnd   = "--playlist-end"
)

// Probing
const (
	ListFormats  = "-F"
	DumpJSON     = "-J"
	FlatPlaylist = "--flat-playlist"
)
