package ffmpeg

import (
	"strconv"

	"github.com/backmassage/shrinkwebm/internal/planner"
)

// Fixed encoding profile. Only the bitrates vary per file.
const (
	VideoCodec  = "libvpx-vp9"
	VideoCRF    = "30"
	ScaleFilter = "scale=-2:144"
	AudioCodec  = "libopus"
	Container   = "webm"
)

// Build constructs the complete ffmpeg argument slice for one encode, with
// the binary at index 0. The output is overwritten unconditionally (-y).
func Build(ffmpegBin, input, output string, plan planner.BitratePlan, verbose bool) []string {
	args := make([]string, 0, 40)

	// --- Preamble ---
	args = append(args, ffmpegBin, "-hide_banner", "-nostdin", "-y")
	if verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Input ---
	args = append(args, "-i", input)

	// --- Video ---
	args = append(args,
		"-c:v", VideoCodec,
		"-crf", VideoCRF,
		"-b:v", kbps(plan.VideoKbps),
		"-maxrate", kbps(plan.MaxRateKbps),
		"-bufsize", kbps(plan.BufSizeKbps),
		"-vf", ScaleFilter,
	)

	// --- Audio ---
	args = append(args,
		"-c:a", AudioCodec,
		"-b:a", kbps(plan.AudioKbps),
		"-vbr", "on",
		"-application", "voip",
		"-strict", "-2",
	)

	// --- Output ---
	args = append(args, "-f", Container, output)
	return args
}

func kbps(v int) string {
	return strconv.Itoa(v) + "k"
}
