// Command shrinkwebm compresses every video in a directory to a small
// VP9/Opus WebM near a target size.
//
// It parses flags, validates configuration and paths, and either runs
// system diagnostics (--check) or the batch, optionally followed by watch
// mode with a status server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/backmassage/shrinkwebm/internal/check"
	"github.com/backmassage/shrinkwebm/internal/config"
	"github.com/backmassage/shrinkwebm/internal/display"
	"github.com/backmassage/shrinkwebm/internal/ffmpeg"
	"github.com/backmassage/shrinkwebm/internal/history"
	"github.com/backmassage/shrinkwebm/internal/logging"
	"github.com/backmassage/shrinkwebm/internal/pipeline"
	"github.com/backmassage/shrinkwebm/internal/server"
	"github.com/backmassage/shrinkwebm/internal/term"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, args, stdout); err != nil {
		if errors.Is(err, config.ErrHelp) || errors.Is(err, config.ErrVersion) {
			return 0
		}
		fmt.Fprintf(stderr, "shrinkwebm: %v\n", err)
		fmt.Fprintln(stderr, "Try 'shrinkwebm --help' for more information.")
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "shrinkwebm: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg, logging.Options{Stdout: stdout, Stderr: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "shrinkwebm: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available. All output goes through log from here on.
	display.PrintBanner(stdout, term.UseColor(cfg.ColorMode), config.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("received interrupt, stopping")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.CheckOnly {
		check.RunCheck(ctx, &cfg, log.Named("check"))
		return 0
	}

	// The input must exist before anything is created on disk.
	if fi, err := os.Stat(cfg.InputDir); err != nil || !fi.IsDir() {
		log.Error("input directory not found", "dir", cfg.InputDir)
		return 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("cannot create output directory", "dir", cfg.OutputDir, "error", err)
		return 1
	}

	if err := check.CheckDeps(ctx, &cfg); err != nil {
		if check.IsFatal(err) {
			log.Error("dependency check failed", "error", err)
			return 1
		}
		log.Warn("encoder check failed, encodes may fail", "error", err)
	}
	if free, err := check.DiskFree(cfg.OutputDir); err == nil && free < uint64(cfg.TargetBytes()) {
		log.Warn("low disk space at output directory",
			"free", display.FormatBytes(int64(free)),
			"target", display.FormatBytes(cfg.TargetBytes()))
	}

	runID := uuid.NewString()
	log.Info(fmt.Sprintf("=== shrinkwebm v%s ===", config.Version), "run_id", runID)
	log.Info("In:  " + cfg.InputDir)
	log.Info("Out: " + cfg.OutputDir)
	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be written")
	}

	// Phase 3: Optional history store.
	var (
		rec  pipeline.Recorder
		hist server.HistorySource
	)
	if cfg.HistoryDSN != "" {
		store, err := history.Open(cfg.HistoryDSN, log.Named("history"))
		if err != nil {
			log.Warn("history store unavailable, continuing without it", "error", err)
		} else {
			defer store.Close()
			rec, hist = store, store
			log.Info("recording history", "driver", store.Driver())
		}
	}

	// Phase 4: Batch.
	tc := ffmpeg.NewTranscoder(cfg.FFmpegBin, cfg.FFprobeBin, cfg.Verbose, stderr, log.Named("ffmpeg"))
	runner := pipeline.NewRunner(&cfg, log.Named("pipeline"), tc, rec, runID)
	runner.Run(ctx)

	if !cfg.Watch {
		if cfg.ListenAddr != "" {
			log.Warn("--listen has no effect without --watch")
		}
		return 0
	}
	if ctx.Err() != nil {
		return 0
	}

	// Phase 5: Watch mode, optionally with the status server.
	srvDone := make(chan error, 1)
	if cfg.ListenAddr != "" {
		if !cfg.Verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(cfg.ListenAddr, runner, hist, log.Named("server"))
		go func() {
			err := srv.Run(ctx)
			if err != nil {
				log.Error("status server failed", "error", err)
				cancel()
			}
			srvDone <- err
		}()
	} else {
		srvDone <- nil
	}

	code := 0
	if err := runner.Watch(ctx); err != nil {
		log.Error("watch failed", "error", err)
		code = 1
	}
	runner.LogSummary()
	cancel()
	if err := <-srvDone; err != nil {
		code = 1
	}
	return code
}
