package planner

// BitratePlan holds the bitrates for one encode. It is produced by Plan and
// consumed by the ffmpeg package to construct command arguments. All values
// are kilobits per second.
type BitratePlan struct {
	VideoKbps   int
	AudioKbps   int
	MaxRateKbps int // 2 x VideoKbps
	BufSizeKbps int // 4 x VideoKbps

	// RawVideoKbps is the unclamped arithmetic result. It may be negative
	// when the audio budget alone exceeds the target.
	RawVideoKbps float64

	// Clamped is set when RawVideoKbps fell below the floor and VideoKbps
	// was raised to it. The output will then overshoot the target size.
	Clamped bool
}

// TotalKbps is the combined video and audio bitrate.
func (p BitratePlan) TotalKbps() int {
	return p.VideoKbps + p.AudioKbps
}
