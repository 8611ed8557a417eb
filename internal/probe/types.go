package probe

import (
	"fmt"
	"strconv"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	NbStreams  int
	FormatName string
	Duration   float64
	Size       int64
	BitRate    int64
}

// VideoStream holds the parsed properties of the primary video stream.
type VideoStream struct {
	Index   int
	Codec   string
	Width   int
	Height  int
	BitRate int64
}

// Result is the parsed output of a single ffprobe JSON call.
//
// Duration is the validated duration in seconds of the first reported stream
// (falling back to the container duration when that stream carries none).
// It is always positive and finite. PrimaryVideo is the first video stream
// that is not attached cover art, or nil.
type Result struct {
	Duration       float64
	DurationSource string // "stream" or "format"
	Format         FormatInfo
	PrimaryVideo   *VideoStream
	StreamCount    int
}

// VideoBitRate returns the primary video stream bitrate in bits/sec,
// falling back to the format-level bitrate when the stream value is
// unavailable or zero.
func (r *Result) VideoBitRate() int64 {
	if r.PrimaryVideo != nil && r.PrimaryVideo.BitRate > 0 {
		return r.PrimaryVideo.BitRate
	}
	return r.Format.BitRate
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (r *Result) Resolution() string {
	if r.PrimaryVideo == nil || r.PrimaryVideo.Width <= 0 || r.PrimaryVideo.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(r.PrimaryVideo.Width) + "x" + strconv.Itoa(r.PrimaryVideo.Height)
}

// Error is a probe failure for one file. Stderr carries ffprobe's own
// diagnostic text when the tool ran.
type Error struct {
	Path   string
	Reason string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
