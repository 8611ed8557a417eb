package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// killGrace bounds how long Execute waits for stderr to drain after the
// process is killed on cancellation.
const killGrace = 5 * time.Second

// Result holds the outcome of a single ffmpeg invocation. OK is true only
// when the process exited with status 0.
type Result struct {
	OK       bool
	Stderr   string
	ExitCode int // -1 when the process never started or was killed
	Err      error
	Elapsed  time.Duration
}

// Execute runs args (binary first) and blocks until the process exits.
// Stderr is always captured; when tee is non-nil it is also copied there in
// real time. Cancelling ctx kills the process.
func Execute(ctx context.Context, args []string, tee io.Writer) Result {
	if len(args) == 0 {
		return Result{ExitCode: -1, Err: errors.New("ffmpeg: empty command")}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.WaitDelay = killGrace

	var stderrBuf bytes.Buffer
	if tee != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, tee)
	} else {
		cmd.Stderr = &stderrBuf
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		OK:       err == nil,
		Stderr:   stderrBuf.String(),
		ExitCode: -1,
		Err:      err,
		Elapsed:  time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil && ctx.Err() != nil {
		res.Err = ctx.Err()
	}
	return res
}
