package ffmpeg

import (
	"regexp"
	"strings"
)

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by Classify; the first match wins.
var (
	reEncoderMissing = regexp.MustCompile(
		`(?i)Unknown encoder|Encoder not found|` +
			`Error while opening encoder|encoder .* not found`)

	reInvalidInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`moov atom not found|` +
			`could not find codec parameters|` +
			`No such file or directory|` +
			`does not contain any stream`)

	reDiskFull = regexp.MustCompile(
		`(?i)No space left on device|Disk quota exceeded`)

	rePermission = regexp.MustCompile(
		`(?i)Permission denied|Read-only file system`)
)

// Hint values returned by Classify.
const (
	HintNone           = ""
	HintEncoderMissing = "encoder unavailable (ffmpeg built without libvpx-vp9 or libopus?)"
	HintInvalidInput   = "input is unreadable or not a valid media file"
	HintDiskFull       = "output disk is full"
	HintPermission     = "permission denied on input or output path"
)

// Classify maps ffmpeg stderr to a short human-readable hint, or HintNone.
func Classify(stderr string) string {
	switch {
	case reEncoderMissing.MatchString(stderr):
		return HintEncoderMissing
	case reDiskFull.MatchString(stderr):
		return HintDiskFull
	case rePermission.MatchString(stderr):
		return HintPermission
	case reInvalidInput.MatchString(stderr):
		return HintInvalidInput
	default:
		return HintNone
	}
}

// Tail returns the last n non-empty lines of s joined by newlines.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\r\n"), "\n")
	out := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			out = append(out, l)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return strings.Join(out, "\n")
}
