package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/backmassage/shrinkwebm/internal/config"
	"github.com/backmassage/shrinkwebm/internal/display"
	"github.com/backmassage/shrinkwebm/internal/ffmpeg"
	"github.com/backmassage/shrinkwebm/internal/history"
	"github.com/backmassage/shrinkwebm/internal/naming"
	"github.com/backmassage/shrinkwebm/internal/planner"
	"github.com/backmassage/shrinkwebm/internal/probe"
)

// stderrTailLines is how much ffmpeg output is logged on failure.
const stderrTailLines = 20

// Transcoder probes and encodes single files. *ffmpeg.Transcoder is the
// production implementation; tests substitute a fake.
type Transcoder interface {
	Probe(ctx context.Context, path string) (*probe.Result, error)
	Encode(ctx context.Context, input, output string, plan planner.BitratePlan) ffmpeg.Result
}

// Recorder persists per-file outcomes. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, r *history.Record) error
}

// Runner processes the input directory sequentially. Stats may be read
// concurrently (status server) while Run or Watch is in progress.
type Runner struct {
	cfg     *config.Config
	log     hclog.Logger
	tc      Transcoder
	rec     Recorder
	runID   string
	tracker *naming.CollisionTracker

	mu    sync.RWMutex
	stats RunStats

	// watchReady, when non-nil, is closed once the watcher is registered.
	watchReady chan struct{}
}

// NewRunner wires a runner. rec may be nil when no history store is
// configured.
func NewRunner(cfg *config.Config, log hclog.Logger, tc Transcoder, rec Recorder, runID string) *Runner {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Runner{
		cfg:     cfg,
		log:     log,
		tc:      tc,
		rec:     rec,
		runID:   runID,
		tracker: naming.NewCollisionTracker(),
	}
}

// RunID returns the identifier attached to logs and history records.
func (r *Runner) RunID() string { return r.runID }

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() RunStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

func (r *Runner) update(fn func(s *RunStats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

// Run is the batch entry point. It enumerates the input directory once,
// processes each entry in order, logs a summary, and returns the stats.
// Per-file failures are counted, never returned. Cancelling ctx stops the
// batch before the next entry.
func (r *Runner) Run(ctx context.Context) RunStats {
	entries, err := Discover(r.cfg.InputDir, r.cfg.Extensions)
	if err != nil {
		r.log.Error("cannot read input directory", "dir", r.cfg.InputDir, "error", err)
		return r.Stats()
	}

	r.update(func(s *RunStats) { s.Total += len(entries) })
	r.logBatchHeader(len(entries))

	for _, e := range entries {
		if ctx.Err() != nil {
			r.log.Warn("interrupted, stopping batch")
			break
		}
		r.update(func(s *RunStats) { s.Current++ })
		r.processEntry(ctx, e)
	}

	r.LogSummary()
	return r.Stats()
}

// processEntry handles one directory entry: classify, then
// name, probe, plan, and encode.
func (r *Runner) processEntry(ctx context.Context, e Entry) {
	st := r.Stats()
	log := r.log.With("file", e.Name)
	log.Info(fmt.Sprintf("[%d/%d] %s", st.Current, st.Total, e.Name))

	switch e.Kind {
	case KindNotRegular:
		log.Info("skipping: not a regular file")
		r.update(func(s *RunStats) { s.Skipped++ })
		return
	case KindOther:
		log.Info("skipping: unrecognized file type")
		r.update(func(s *RunStats) { s.Skipped++ })
		return
	}

	start := time.Now()
	output := naming.OutputPath(r.cfg.OutputDir, e.Name)
	rec := &history.Record{
		RunID:      r.runID,
		InputPath:  e.Path,
		OutputPath: output,
	}

	if prev, collided := r.tracker.Claim(e.Path, output); collided {
		log.Warn("output name collision, earlier output will be overwritten",
			"output", output, "previous_input", prev)
	}

	// --- Skip-existing ---
	if r.cfg.SkipExisting {
		if _, err := os.Stat(output); err == nil {
			log.Info("skipping: output exists", "output", output)
			r.update(func(s *RunStats) { s.Skipped++ })
			rec.Status = history.StatusSkipped
			r.record(ctx, rec, start)
			return
		}
	}

	// --- Probe ---
	pr, err := r.tc.Probe(ctx, e.Path)
	if err != nil {
		r.logProbeFailure(log, err)
		r.update(func(s *RunStats) { s.Failed++ })
		rec.Status, rec.Stage, rec.Diagnostic = history.StatusFailed, history.StageProbe, probeDiagnostic(err)
		r.record(ctx, rec, start)
		return
	}
	logFileStats(log, pr)
	rec.DurationSec = pr.Duration

	// --- Plan ---
	plan := planner.Plan(pr.Duration, r.cfg.TargetSizeMB, r.cfg.AudioBitrateKbps, r.cfg.MinVideoBitrateKbps)
	rec.VideoKbps, rec.AudioKbps, rec.Clamped = plan.VideoKbps, plan.AudioKbps, plan.Clamped
	if plan.Clamped {
		log.Warn("video bitrate below floor, clamped; output will exceed target size",
			"computed_kbps", fmt.Sprintf("%.1f", plan.RawVideoKbps),
			"floor_kbps", r.cfg.MinVideoBitrateKbps)
		r.update(func(s *RunStats) { s.Clamped++ })
	}
	est := planner.EstimateSize(plan, pr.Duration, e.Size)
	log.Info("planned",
		"video", fmt.Sprintf("%dk", plan.VideoKbps),
		"maxrate", fmt.Sprintf("%dk", plan.MaxRateKbps),
		"bufsize", fmt.Sprintf("%dk", plan.BufSizeKbps),
		"audio", fmt.Sprintf("%dk", plan.AudioKbps),
		"estimate", display.FormatBytes(est.Bytes))
	log.Info("  -> " + output)

	// --- Dry-run ---
	if r.cfg.DryRun {
		log.Info("[DRY] would encode")
		r.update(func(s *RunStats) { s.Encoded++ })
		rec.Status = history.StatusDryRun
		r.record(ctx, rec, start)
		return
	}

	// --- Encode ---
	res := r.tc.Encode(ctx, e.Path, output, plan)
	if !res.OK {
		if ctx.Err() != nil {
			log.Warn("encode interrupted")
		} else {
			r.logEncodeFailure(log, res)
		}
		r.update(func(s *RunStats) { s.Failed++ })
		rec.Status, rec.Stage = history.StatusFailed, history.StageEncode
		rec.Diagnostic = ffmpeg.Tail(res.Stderr, stderrTailLines)
		if rec.Diagnostic == "" && res.Err != nil {
			rec.Diagnostic = res.Err.Error()
		}
		r.record(ctx, rec, start)
		return
	}

	// --- Report ---
	var outSize int64
	if fi, err := os.Stat(output); err == nil {
		outSize = fi.Size()
	}
	rec.Status, rec.OutputBytes = history.StatusEncoded, outSize
	r.update(func(s *RunStats) {
		s.Encoded++
		s.TotalInputBytes += e.Size
		s.TotalOutputBytes += outSize
	})

	log.Info("encoded",
		"size", display.FormatBytes(outSize),
		"of_source", display.FormatPercent(outSize, e.Size),
		"elapsed", time.Since(start).Round(time.Second).String())

	if target := r.cfg.TargetBytes(); outSize > target {
		log.Warn("output exceeds target size",
			"size", display.FormatBytes(outSize),
			"target", display.FormatBytes(target))
		r.update(func(s *RunStats) { s.OverTarget++ })
	}
	r.record(ctx, rec, start)
}

// record writes rec to the history store. Failures are warnings only.
func (r *Runner) record(ctx context.Context, rec *history.Record, start time.Time) {
	if r.rec == nil {
		return
	}
	rec.ElapsedMS = time.Since(start).Milliseconds()
	if err := r.rec.Record(context.WithoutCancel(ctx), rec); err != nil {
		r.log.Warn("history write failed", "file", rec.InputPath, "error", err)
	}
}

func (r *Runner) logProbeFailure(log hclog.Logger, err error) {
	var pe *probe.Error
	if !errors.As(err, &pe) {
		log.Error("probe failed", "error", err)
		return
	}
	args := []interface{}{"reason", pe.Reason}
	if pe.Err != nil {
		args = append(args, "error", pe.Err)
	}
	log.Error("probe failed", args...)
	logStderr(log, pe.Stderr)
}

func (r *Runner) logEncodeFailure(log hclog.Logger, res ffmpeg.Result) {
	args := []interface{}{"exit_code", res.ExitCode}
	if hint := ffmpeg.Classify(res.Stderr); hint != ffmpeg.HintNone {
		args = append(args, "hint", hint)
	}
	if res.Err != nil && res.ExitCode < 0 {
		args = append(args, "error", res.Err)
	}
	log.Error("encode failed", args...)
	logStderr(log, res.Stderr)
}

func probeDiagnostic(err error) string {
	var pe *probe.Error
	if errors.As(err, &pe) && pe.Stderr != "" {
		return pe.Reason + ": " + pe.Stderr
	}
	return err.Error()
}

func logStderr(log hclog.Logger, stderr string) {
	tail := ffmpeg.Tail(stderr, stderrTailLines)
	if tail == "" {
		return
	}
	log.Error("last tool output:")
	for _, l := range strings.Split(tail, "\n") {
		log.Error("  " + l)
	}
}

// --- Logging helpers ---

func (r *Runner) logBatchHeader(n int) {
	r.log.Info(fmt.Sprintf("Found %d entries", n), "input", r.cfg.InputDir, "output", r.cfg.OutputDir)
	r.log.Info("Profile: VP9 CRF 30 + Opus, 144p WebM",
		"target", display.FormatBytes(r.cfg.TargetBytes()),
		"audio", fmt.Sprintf("%dk", r.cfg.AudioBitrateKbps),
		"video_floor", fmt.Sprintf("%dk", r.cfg.MinVideoBitrateKbps))
	if r.cfg.SkipExisting {
		r.log.Info("Existing outputs: skip")
	}
	if r.cfg.DryRun {
		r.log.Info("Dry run: encoder will not be invoked")
	}
}

func logFileStats(log hclog.Logger, pr *probe.Result) {
	codec := "unknown"
	if pr.PrimaryVideo != nil && pr.PrimaryVideo.Codec != "" {
		codec = pr.PrimaryVideo.Codec
	}
	log.Info(fmt.Sprintf("  Video: %s | %s | %s | %s",
		display.FormatDuration(pr.Duration),
		pr.Resolution(),
		display.FormatBitrateLabel(pr.VideoBitRate()/1000),
		codec))
}

// LogSummary logs the counters and byte totals.
func (r *Runner) LogSummary() {
	st := r.Stats()
	r.log.Info("==============================")
	r.log.Info(fmt.Sprintf("Done: %d encoded, %d skipped, %d failed", st.Encoded, st.Skipped, st.Failed),
		"run_id", r.runID)
	if st.Clamped > 0 || st.OverTarget > 0 {
		r.log.Info(fmt.Sprintf("  Clamped: %d, over target: %d", st.Clamped, st.OverTarget))
	}
	if r.cfg.DryRun {
		r.log.Info("  Total space saved: n/a (dry run)")
		return
	}
	r.log.Info(fmt.Sprintf("  Input: %s, output: %s, saved: %s",
		display.FormatBytes(st.TotalInputBytes),
		display.FormatBytes(st.TotalOutputBytes),
		display.FormatBytesWithSign(st.SpaceSaved())))
}
