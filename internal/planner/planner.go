// Package planner derives per-file encode bitrates from a duration and a
// target output size. It performs no I/O.
package planner

import "math"

// Plan computes the bitrate plan for a file of durationSec seconds so that
// video plus audio lands near targetMB megabytes.
//
//	targetKbit = targetMB * 8 * 1024
//	raw        = targetKbit / durationSec - audioKbps
//
// When raw falls below minVideoKbps the video bitrate is pinned to the floor
// and Clamped is set. Otherwise raw is truncated toward zero. Max rate and
// buffer size are derived from the final video bitrate.
//
// durationSec must be positive and finite; the prober guarantees this.
func Plan(durationSec, targetMB float64, audioKbps, minVideoKbps int) BitratePlan {
	targetKbit := targetMB * 8 * 1024
	raw := targetKbit/durationSec - float64(audioKbps)

	p := BitratePlan{
		AudioKbps:    audioKbps,
		RawVideoKbps: raw,
	}
	if raw < float64(minVideoKbps) {
		p.VideoKbps = minVideoKbps
		p.Clamped = true
	} else {
		p.VideoKbps = int(math.Trunc(raw))
	}
	p.MaxRateKbps = 2 * p.VideoKbps
	p.BufSizeKbps = 4 * p.VideoKbps
	return p
}
