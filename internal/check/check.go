// Package check provides system diagnostics (--check mode) and pre-batch
// dependency validation (CheckDeps) for ffmpeg, ffprobe, libvpx-vp9, and
// libopus.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/backmassage/shrinkwebm/internal/config"
	"github.com/backmassage/shrinkwebm/internal/display"
	"github.com/backmassage/shrinkwebm/internal/ffmpeg"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFFmpegNotFound  = errors.New("ffmpeg not found")
	ErrFFprobeNotFound = errors.New("ffprobe not found")
	ErrEncoderList     = errors.New("could not list ffmpeg encoders")
	ErrVP9Missing      = errors.New("ffmpeg lacks the libvpx-vp9 encoder")
	ErrOpusMissing     = errors.New("ffmpeg lacks the libopus encoder")
)

// CheckDeps is the pre-batch validation: both tools must resolve (on PATH
// or at the configured path) and ffmpeg should list both encoders of the
// fixed profile. Returns a wrapped sentinel error on failure; see IsFatal.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegBin); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, cfg.FFmpegBin)
	}
	if _, err := exec.LookPath(cfg.FFprobeBin); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, cfg.FFprobeBin)
	}

	encoders, err := listEncoders(ctx, cfg.FFmpegBin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncoderList, err)
	}
	if !encoders[ffmpeg.VideoCodec] {
		return ErrVP9Missing
	}
	if !encoders[ffmpeg.AudioCodec] {
		return ErrOpusMissing
	}
	return nil
}

// IsFatal reports whether a CheckDeps error means the batch cannot start.
// Only a missing ffmpeg or ffprobe binary is fatal. Encoder problems are
// left to surface as per-file encode failures.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFFmpegNotFound) || errors.Is(err, ErrFFprobeNotFound)
}

// Report is what RunCheck found. Zero values mean "unknown".
type Report struct {
	FFmpegVersion string
	FFprobeFound  bool
	VP9           bool
	Opus          bool
	TestEncode    bool
	CPUs          int
	MemTotal      uint64
	MemAvailable  uint64
	DiskFree      uint64
}

// RunCheck runs the --check flow: logs the ffmpeg version, encoder
// availability, a tiny test encode, and host resources. It is
// informational only and does not stop on failure.
func RunCheck(ctx context.Context, cfg *config.Config, log hclog.Logger) Report {
	var rep Report
	log.Info("=== System Check ===")

	rep.FFmpegVersion = checkFFmpeg(ctx, cfg.FFmpegBin, log)
	if _, err := exec.LookPath(cfg.FFprobeBin); err != nil {
		log.Error("ffprobe not found", "path", cfg.FFprobeBin)
	} else {
		rep.FFprobeFound = true
		log.Info("ffprobe found", "path", cfg.FFprobeBin)
	}

	if rep.FFmpegVersion != "" {
		rep.VP9, rep.Opus = checkEncoders(ctx, cfg.FFmpegBin, log)
		if rep.VP9 && rep.Opus {
			rep.TestEncode = checkTestEncode(ctx, cfg.FFmpegBin, log)
		}
	}

	checkHost(&rep, cfg, log)
	return rep
}

// checkFFmpeg logs the first line of `ffmpeg -version` and returns it.
func checkFFmpeg(ctx context.Context, bin string, log hclog.Logger) string {
	if _, err := exec.LookPath(bin); err != nil {
		log.Error("ffmpeg not found", "path", bin)
		return ""
	}
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		log.Warn("ffmpeg found but -version failed", "error", err)
		return ""
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Info("ffmpeg: " + firstLine)
	return firstLine
}

func checkEncoders(ctx context.Context, bin string, log hclog.Logger) (vp9, opus bool) {
	encoders, err := listEncoders(ctx, bin)
	if err != nil {
		log.Warn("could not list encoders", "error", err)
		return false, false
	}
	vp9, opus = encoders[ffmpeg.VideoCodec], encoders[ffmpeg.AudioCodec]
	logAvailability(log, ffmpeg.VideoCodec, vp9)
	logAvailability(log, ffmpeg.AudioCodec, opus)
	return vp9, opus
}

func logAvailability(log hclog.Logger, name string, ok bool) {
	if ok {
		log.Info("encoder available", "encoder", name)
	} else {
		log.Error("encoder missing", "encoder", name)
	}
}

// checkTestEncode runs a fraction of a second of synthetic input through the
// fixed profile.
func checkTestEncode(ctx context.Context, bin string, log hclog.Logger) bool {
	log.Info("Testing VP9/Opus encode...")
	if runSilent(ctx, bin, testEncodeArgs()...) {
		log.Info("VP9/Opus test encode works")
		return true
	}
	log.Error("VP9/Opus test encode failed")
	return false
}

func checkHost(rep *Report, cfg *config.Config, log hclog.Logger) {
	if n, err := cpu.Counts(true); err == nil {
		rep.CPUs = n
		log.Info("CPU", "logical_cores", n)
	} else {
		log.Warn("could not read CPU count", "error", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		rep.MemTotal, rep.MemAvailable = vm.Total, vm.Available
		log.Info("Memory",
			"total", display.FormatBytes(int64(vm.Total)),
			"available", display.FormatBytes(int64(vm.Available)))
	} else {
		log.Warn("could not read memory stats", "error", err)
	}

	dir := cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	if free, err := DiskFree(dir); err == nil {
		rep.DiskFree = free
		log.Info("Disk", "path", dir, "free", display.FormatBytes(int64(free)))
	} else {
		log.Warn("could not read free disk space", "path", dir, "error", err)
	}
}

// DiskFree returns the bytes available on the filesystem holding path.
func DiskFree(path string) (uint64, error) {
	u, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return u.Free, nil
}

// --- internal helpers ---

// listEncoders runs `ffmpeg -hide_banner -encoders` and returns the set of
// encoder names.
func listEncoders(ctx context.Context, bin string) (map[string]bool, error) {
	out, err := exec.CommandContext(ctx, bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, err
	}
	return parseEncoders(string(out)), nil
}

// parseEncoders extracts names from `ffmpeg -encoders` lines such as
//
//	V....D libvpx-vp9           libvpx VP9 (codec vp9)
//
// Header lines before the "------" separator are ignored.
func parseEncoders(out string) map[string]bool {
	names := make(map[string]bool)
	body := out
	if idx := strings.Index(out, "------"); idx >= 0 {
		body = out[idx:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		} else {
			body = ""
		}
	}
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && len(fields[0]) == 6 {
			names[fields[1]] = true
		}
	}
	return names
}

// testEncodeArgs returns the arguments for a minimal VP9/Opus test encode.
func testEncodeArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x144:d=0.2",
		"-f", "lavfi", "-i", "sine=frequency=1000:duration=0.2",
		"-c:v", ffmpeg.VideoCodec, "-crf", ffmpeg.VideoCRF, "-b:v", "16k",
		"-c:a", ffmpeg.AudioCodec, "-b:a", "16k",
		"-f", "null", "-",
	}
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(ctx context.Context, name string, args ...string) bool {
	return exec.CommandContext(ctx, name, args...).Run() == nil
}
