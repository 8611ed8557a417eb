package ffmpeg

import (
	"context"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/backmassage/shrinkwebm/internal/planner"
	"github.com/backmassage/shrinkwebm/internal/probe"
)

// Transcoder runs ffprobe and ffmpeg at configured paths. It satisfies the
// pipeline's Transcoder interface.
type Transcoder struct {
	FFmpegBin  string
	FFprobeBin string
	Verbose    bool
	Tee        io.Writer // receives live ffmpeg stderr when Verbose
	Log        hclog.Logger
}

// NewTranscoder returns a Transcoder with a null logger if log is nil.
func NewTranscoder(ffmpegBin, ffprobeBin string, verbose bool, tee io.Writer, log hclog.Logger) *Transcoder {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Transcoder{
		FFmpegBin:  ffmpegBin,
		FFprobeBin: ffprobeBin,
		Verbose:    verbose,
		Tee:        tee,
		Log:        log,
	}
}

// Probe inspects path with ffprobe.
func (t *Transcoder) Probe(ctx context.Context, path string) (*probe.Result, error) {
	return probe.Probe(ctx, t.FFprobeBin, path)
}

// Encode runs the fixed-profile encode of input into output.
func (t *Transcoder) Encode(ctx context.Context, input, output string, plan planner.BitratePlan) Result {
	args := Build(t.FFmpegBin, input, output, plan, t.Verbose)
	t.Log.Debug("running ffmpeg", "cmd", strings.Join(args, " "))

	var tee io.Writer
	if t.Verbose {
		tee = t.Tee
	}
	return Execute(ctx, args, tee)
}
