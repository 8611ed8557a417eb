package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Probe runs a single ffprobe JSON call against path and returns the parsed
// result. Any failure (tool error, bad JSON, no streams, unusable duration)
// is returned as *Error.
func Probe(ctx context.Context, ffprobe, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, &Error{
			Path:   path,
			Reason: "ffprobe failed",
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	res, err := ParseJSON(out)
	if err != nil {
		if pe, ok := err.(*Error); ok {
			pe.Path = path
			pe.Stderr = strings.TrimSpace(stderr.String())
		}
		return nil, err
	}
	if res.Format.Filename == "" {
		res.Format.Filename = path
	}
	return res, nil
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Reason: "unparsable ffprobe output", Err: err}
	}
	if len(raw.Streams) == 0 {
		return nil, &Error{Reason: "no streams"}
	}

	res := &Result{
		Format:      convertFormat(&raw.Format),
		StreamCount: len(raw.Streams),
	}

	d, src, err := firstStreamDuration(&raw)
	if err != nil {
		return nil, err
	}
	res.Duration, res.DurationSource = d, src

	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType == "video" && s.Disposition["attached_pic"] != 1 {
			res.PrimaryVideo = &VideoStream{
				Index:   s.Index,
				Codec:   s.CodecName,
				Width:   s.Width,
				Height:  s.Height,
				BitRate: parseInt64(s.BitRate),
			}
			break
		}
	}
	return res, nil
}

// firstStreamDuration reads streams[0].duration, falling back to the
// container duration when the stream has none (Matroska only reports it at
// the format level). The value must be positive and finite.
func firstStreamDuration(raw *ffprobeOutput) (float64, string, error) {
	text, src := strings.TrimSpace(raw.Streams[0].Duration), "stream"
	if text == "" || text == "N/A" {
		text, src = strings.TrimSpace(raw.Format.Duration), "format"
	}
	if text == "" || text == "N/A" {
		return 0, "", &Error{Reason: "no duration reported"}
	}

	d, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, "", &Error{Reason: "unparsable duration " + strconv.Quote(text), Err: err}
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, "", &Error{Reason: "non-positive duration " + strconv.Quote(text)}
	}
	return d, src, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	NbStreams  int    `json:"nb_streams"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type ffprobeStream struct {
	Index       int            `json:"index"`
	CodecName   string         `json:"codec_name"`
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	BitRate     string         `json:"bit_rate"`
	Duration    string         `json:"duration"`
	Disposition map[string]int `json:"disposition"`
}

func convertFormat(f *ffprobeFormat) FormatInfo {
	return FormatInfo{
		Filename:   f.Filename,
		NbStreams:  f.NbStreams,
		FormatName: f.FormatName,
		Duration:   parseFloat(f.Duration),
		Size:       parseInt64(f.Size),
		BitRate:    parseInt64(f.BitRate),
	}
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
