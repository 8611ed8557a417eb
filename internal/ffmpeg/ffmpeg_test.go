package ffmpeg

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/shrinkwebm/internal/planner"
)

func TestBuild_FixedProfile(t *testing.T) {
	plan := planner.Plan(100, 10, 16, 16)
	got := Build("ffmpeg", "/in/clip.mp4", "/out/clip_c.webm", plan, false)

	want := []string{
		"ffmpeg", "-hide_banner", "-nostdin", "-y", "-loglevel", "error",
		"-i", "/in/clip.mp4",
		"-c:v", "libvpx-vp9", "-crf", "30",
		"-b:v", "803k", "-maxrate", "1606k", "-bufsize", "3212k",
		"-vf", "scale=-2:144",
		"-c:a", "libopus", "-b:a", "16k", "-vbr", "on", "-application", "voip", "-strict", "-2",
		"-f", "webm", "/out/clip_c.webm",
	}
	assert.Equal(t, want, got)
}

func TestBuild_VerboseAndClamped(t *testing.T) {
	plan := planner.Plan(10000, 10, 16, 16)
	got := Build("/opt/ffmpeg", "a.mkv", "a_c.webm", plan, true)

	assert.Equal(t, "/opt/ffmpeg", got[0])
	assert.Subset(t, got, []string{"info"})
	assert.NotContains(t, got, "error")
	assert.Contains(t, got, "16k")
	assert.Contains(t, got, "32k")
	assert.Contains(t, got, "64k")
	assert.Equal(t, "a_c.webm", got[len(got)-1])
}

func TestClassify(t *testing.T) {
	cases := []struct {
		stderr string
		want   string
	}{
		{"Unknown encoder 'libvpx-vp9'", HintEncoderMissing},
		{"clip.mp4: Invalid data found when processing input", HintInvalidInput},
		{"[mov,mp4 @ 0x1] moov atom not found", HintInvalidInput},
		{"av_interleaved_write_frame(): No space left on device", HintDiskFull},
		{"/out/clip_c.webm: Permission denied", HintPermission},
		{"something else entirely", HintNone},
		{"", HintNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.stderr), "stderr=%q", tc.stderr)
	}
}

func TestTail(t *testing.T) {
	s := "one\ntwo\n\nthree\nfour\n"
	assert.Equal(t, "three\nfour", Tail(s, 2))
	assert.Equal(t, "one\ntwo\nthree\nfour", Tail(s, 10))
	assert.Equal(t, "", Tail("", 3))
}

func TestExecute_MissingBinary(t *testing.T) {
	res := Execute(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, nil)
	assert.False(t, res.OK)
	assert.Error(t, res.Err)
	assert.Equal(t, -1, res.ExitCode)
}

func TestExecute_EmptyCommand(t *testing.T) {
	res := Execute(context.Background(), nil, nil)
	assert.False(t, res.OK)
	assert.Error(t, res.Err)
}

func requireShell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not found in PATH")
	}
	return sh
}

func TestExecute_CapturesStderrAndExitCode(t *testing.T) {
	sh := requireShell(t)
	var tee bytes.Buffer
	res := Execute(context.Background(), []string{sh, "-c", "echo 'No space left on device' >&2; exit 3"}, &tee)

	assert.False(t, res.OK)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Stderr, "No space left on device")
	assert.Equal(t, res.Stderr, tee.String())
	assert.Equal(t, HintDiskFull, Classify(res.Stderr))
}

func TestExecute_Success(t *testing.T) {
	sh := requireShell(t)
	res := Execute(context.Background(), []string{sh, "-c", "exit 0"}, nil)
	assert.True(t, res.OK)
	assert.NoError(t, res.Err)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecute_CancelKillsProcess(t *testing.T) {
	sh := requireShell(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res := Execute(ctx, []string{sh, "-c", "exec sleep 10"}, nil)
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Less(t, res.Elapsed, 5*time.Second)
}

func TestTranscoder_EncodeWithFakeFFmpeg(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	bin := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\nfor a in \"$@\"; do echo \"$a\"; done > '" + argsFile + "'\n" +
		"echo encoding >&2\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	var tee bytes.Buffer
	tc := NewTranscoder(bin, "ffprobe", true, &tee, nil)
	res := tc.Encode(context.Background(), "in.mp4", "out_c.webm", planner.Plan(1000, 10, 16, 16))

	require.True(t, res.OK, res.Stderr)
	assert.Equal(t, "encoding\n", tee.String())

	b, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "-b:v\n65k\n-maxrate\n130k\n-bufsize\n260k\n")
	assert.Contains(t, string(b), "info\n")
}

func TestTranscoder_QuietDoesNotTee(t *testing.T) {
	sh := requireShell(t)
	dir := t.TempDir()
	bin := filepath.Join(dir, "ffmpeg")
	require.NoError(t, os.WriteFile(bin, []byte("#!"+sh+"\necho noisy >&2\nexit 1\n"), 0o755))

	var tee bytes.Buffer
	tc := NewTranscoder(bin, "ffprobe", false, &tee, nil)
	res := tc.Encode(context.Background(), "in.mp4", "out_c.webm", planner.Plan(100, 10, 16, 16))

	assert.False(t, res.OK)
	assert.Equal(t, "noisy\n", res.Stderr)
	assert.Empty(t, tee.String())
}
