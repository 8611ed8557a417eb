package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MP4 with cover art ahead of the real video stream.
const sampleMP4 = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mjpeg",
      "codec_type": "video",
      "width": 600,
      "height": 900,
      "duration": "100.000000",
      "disposition": { "default": 0, "attached_pic": 1 }
    },
    {
      "index": 1,
      "codec_name": "h264",
      "codec_type": "video",
      "width": 1920,
      "height": 1080,
      "bit_rate": "5000000",
      "duration": "99.980000",
      "disposition": { "default": 1, "attached_pic": 0 }
    },
    {
      "index": 2,
      "codec_name": "aac",
      "codec_type": "audio",
      "duration": "100.010000",
      "disposition": { "default": 1 }
    }
  ],
  "format": {
    "filename": "/videos/clip.mp4",
    "nb_streams": 3,
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "100.010000",
    "size": "62500000",
    "bit_rate": "5000000"
  }
}`

// Matroska reports duration only at the container level.
const sampleMKV = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "hevc",
      "codec_type": "video",
      "width": 1280,
      "height": 720,
      "disposition": { "default": 1, "attached_pic": 0 }
    }
  ],
  "format": {
    "filename": "movie.mkv",
    "nb_streams": 1,
    "format_name": "matroska,webm",
    "duration": "1437.123000",
    "size": "500000",
    "bit_rate": "400000"
  }
}`

func TestParseJSON_StreamDuration(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleMP4))
	require.NoError(t, err)

	assert.Equal(t, 100.0, pr.Duration)
	assert.Equal(t, "stream", pr.DurationSource)
	assert.Equal(t, 3, pr.StreamCount)
	assert.Equal(t, "/videos/clip.mp4", pr.Format.Filename)
	assert.Equal(t, int64(62500000), pr.Format.Size)
	assert.Equal(t, 100.01, pr.Format.Duration)

	require.NotNil(t, pr.PrimaryVideo)
	assert.Equal(t, 1, pr.PrimaryVideo.Index, "cover art must not be the primary video")
	assert.Equal(t, "h264", pr.PrimaryVideo.Codec)
	assert.Equal(t, "1920x1080", pr.Resolution())
	assert.Equal(t, int64(5000000), pr.VideoBitRate())
}

func TestParseJSON_FormatDurationFallback(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleMKV))
	require.NoError(t, err)

	assert.InDelta(t, 1437.123, pr.Duration, 1e-9)
	assert.Equal(t, "format", pr.DurationSource)
	assert.Equal(t, "1280x720", pr.Resolution())
	assert.Equal(t, int64(400000), pr.VideoBitRate(), "falls back to format bitrate")
}

func TestParseJSON_Failures(t *testing.T) {
	cases := []struct {
		name   string
		json   string
		reason string
	}{
		{"garbage", `not json`, "unparsable ffprobe output"},
		{"no streams", `{"streams": [], "format": {"duration": "10"}}`, "no streams"},
		{"no duration anywhere", `{"streams": [{"codec_type": "video"}], "format": {}}`, "no duration reported"},
		{"N/A duration", `{"streams": [{"duration": "N/A"}], "format": {"duration": "N/A"}}`, "no duration reported"},
		{"text duration", `{"streams": [{"duration": "abc"}]}`, `unparsable duration "abc"`},
		{"zero", `{"streams": [{"duration": "0.000000"}]}`, `non-positive duration "0.000000"`},
		{"negative", `{"streams": [{"duration": "-3"}]}`, `non-positive duration "-3"`},
		{"nan", `{"streams": [{"duration": "NaN"}]}`, `non-positive duration "NaN"`},
		{"inf", `{"streams": [{"duration": "+Inf"}]}`, `non-positive duration "+Inf"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pr, err := ParseJSON([]byte(tc.json))
			assert.Nil(t, pr)
			var pe *Error
			require.True(t, errors.As(err, &pe), "want *probe.Error, got %T", err)
			assert.Equal(t, tc.reason, pe.Reason)
		})
	}
}

func TestResolution_Unknown(t *testing.T) {
	assert.Equal(t, "unknown", (&Result{}).Resolution())
	assert.Equal(t, "unknown", (&Result{PrimaryVideo: &VideoStream{}}).Resolution())
}

func TestError_Message(t *testing.T) {
	err := &Error{Path: "a.mp4", Reason: "ffprobe failed", Err: errors.New("exit status 1")}
	assert.Equal(t, "probe a.mp4: ffprobe failed: exit status 1", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "exit status 1")

	assert.Equal(t, "probe b.mkv: no streams", (&Error{Path: "b.mkv", Reason: "no streams"}).Error())
}

func TestProbe_MissingBinary(t *testing.T) {
	_, err := Probe(context.Background(), filepath.Join(t.TempDir(), "no-ffprobe"), "clip.mp4")
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "clip.mp4", pe.Path)
	assert.Equal(t, "ffprobe failed", pe.Reason)
}

// fakeProbe writes a shell script that prints body to stdout and errText to
// stderr, then exits with code.
func fakeProbe(t *testing.T, body, errText string, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.json"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "err.txt"), []byte(errText), 0o644))
	script := "#!/bin/sh\ncat '" + filepath.Join(dir, "out.json") + "'\ncat '" +
		filepath.Join(dir, "err.txt") + "' >&2\nexit " + strconv.Itoa(code) + "\n"
	bin := filepath.Join(dir, "ffprobe")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin
}

func TestProbe_FakeBinary(t *testing.T) {
	bin := fakeProbe(t, sampleMKV, "", 0)
	pr, err := Probe(context.Background(), bin, "movie.mkv")
	require.NoError(t, err)
	assert.InDelta(t, 1437.123, pr.Duration, 1e-9)
}

func TestProbe_FakeBinaryFailureCarriesStderr(t *testing.T) {
	bin := fakeProbe(t, "", "clip.mp4: Invalid data found when processing input\n", 1)
	_, err := Probe(context.Background(), bin, "clip.mp4")
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "clip.mp4: Invalid data found when processing input", pe.Stderr)
}

func TestProbe_FakeBinaryBadDuration(t *testing.T) {
	bin := fakeProbe(t, `{"streams": [{"duration": "0"}]}`, "", 0)
	_, err := Probe(context.Background(), bin, "zero.mp4")
	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "zero.mp4", pe.Path)
	assert.Contains(t, pe.Reason, "non-positive")
}
