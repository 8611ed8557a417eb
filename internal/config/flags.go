package config

// This file implements CLI flag parsing and help text.
// A --config file is applied between defaults and flags: flags are parsed
// once to find the file, the file is loaded, then flags are parsed again so
// explicit flags win.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Version is shown in --version and help; main overrides it from -ldflags.
var Version = "1.0.0-dev"

// ErrHelp and ErrVersion are returned by ParseFlags after printing help or
// version text. Callers should exit 0.
var (
	ErrHelp    = errors.New("help requested")
	ErrVersion = errors.New("version requested")
)

// ParseFlags parses args (without the program name) into cfg. Help and
// usage text go to out.
func ParseFlags(cfg *Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("shrinkwebm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { printUsage(out) }

	var extra extraFlags

	definePathFlags(fs, cfg)
	defineSizingFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &extra)
	defineUtilityFlags(fs, &extra)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out)
			return ErrHelp
		}
		return err
	}

	if cfg.ConfigFile != "" {
		if err := LoadFile(cfg.ConfigFile, cfg); err != nil {
			return err
		}
		// Re-apply explicit flags over the file values.
		if err := fs.Parse(args); err != nil {
			return err
		}
	}

	if extra.showHelp {
		printUsage(out)
		return ErrHelp
	}
	if extra.showVersion {
		fmt.Fprintln(out, "shrinkwebm v"+Version)
		return ErrVersion
	}

	if extra.noColor {
		cfg.ColorMode = ColorNever
	} else if extra.forceColor {
		cfg.ColorMode = ColorAlways
	}

	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg.InputDir = NormalizeDirArg(cfg.InputDir)
	cfg.OutputDir = NormalizeDirArg(cfg.OutputDir)
	return nil
}

// extraFlags holds flags that are not stored directly in Config.
type extraFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// definePathFlags registers -i/--input, -o/--output, --config, --ffmpeg, --ffprobe.
func definePathFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.InputDir, "input", cfg.InputDir, "Input directory")
	fs.StringVar(&cfg.InputDir, "i", cfg.InputDir, "Same as --input")
	fs.StringVar(&cfg.OutputDir, "output", cfg.OutputDir, "Output directory")
	fs.StringVar(&cfg.OutputDir, "o", cfg.OutputDir, "Same as --output")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML or JSON config file")
	fs.StringVar(&cfg.FFmpegBin, "ffmpeg", cfg.FFmpegBin, "ffmpeg binary")
	fs.StringVar(&cfg.FFprobeBin, "ffprobe", cfg.FFprobeBin, "ffprobe binary")
}

// defineSizingFlags registers -s/--size, --audio-bitrate, --min-video-bitrate.
func defineSizingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Float64Var(&cfg.TargetSizeMB, "size", cfg.TargetSizeMB, "Target output size in MB")
	fs.Float64Var(&cfg.TargetSizeMB, "s", cfg.TargetSizeMB, "Same as --size")
	fs.Var(&kbpsValue{&cfg.AudioBitrateKbps}, "audio-bitrate", "Audio bitrate in kbps")
	fs.Var(&kbpsValue{&cfg.MinVideoBitrateKbps}, "min-video-bitrate", "Video bitrate floor in kbps")
}

// defineBehaviorFlags registers dry-run, skip-existing, watch, listen, history.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Probe and plan only; do not encode")
	fs.BoolVar(&cfg.DryRun, "d", cfg.DryRun, "Same as --dry-run")
	fs.BoolVar(&cfg.SkipExisting, "skip-existing", cfg.SkipExisting, "Skip inputs whose output already exists")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "Keep running and compress new files")
	fs.BoolVar(&cfg.Watch, "w", cfg.Watch, "Same as --watch")
	fs.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Status server address (watch mode)")
	fs.StringVar(&cfg.HistoryDSN, "history", cfg.HistoryDSN, "History store (sqlite path or postgres:// URL)")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *extraFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, n *extraFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// printUsage writes the help text to w. Column-aligned for readability.
func printUsage(w io.Writer) {
	const col1 = 32
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "shrinkwebm v" + Version + " - compress videos to a target size (VP9/Opus WebM)"},
		{"", ""},
		{"  shrinkwebm -i <input_dir> -o <output_dir> [OPTIONS]", ""},
		{"", ""},
		{"Paths", ""},
		{"  -i, --input <dir>", "Input directory (required)"},
		{"  -o, --output <dir>", "Output directory (required, created if missing)"},
		{"  --config <file>", "YAML or JSON config file"},
		{"  --ffmpeg <path>", "ffmpeg binary (default: ffmpeg)"},
		{"  --ffprobe <path>", "ffprobe binary (default: ffprobe)"},
		{"", ""},
		{"Sizing", ""},
		{"  -s, --size <MB>", "Target output size (default: 10)"},
		{"  --audio-bitrate <kbps>", "Opus bitrate (default: 16)"},
		{"  --min-video-bitrate <kbps>", "Video bitrate floor (default: 16)"},
		{"", ""},
		{"Behavior", ""},
		{"  -d, --dry-run", "Probe and plan only; do not encode"},
		{"  --skip-existing", "Skip inputs whose output already exists"},
		{"  -w, --watch", "Keep running and compress new files"},
		{"  --listen <addr>", "Serve /healthz, /api/stats, /api/history"},
		{"  --history <dsn>", "Record results (sqlite path or postgres:// URL)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output (tee ffmpeg stderr)"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (ffmpeg, VP9, Opus, host)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// kbpsValue adapts an int kbps field to flag.Value, accepting "16", "16k" or "16kbps".
type kbpsValue struct{ p *int }

func (k *kbpsValue) String() string {
	if k.p == nil {
		return ""
	}
	return strconv.Itoa(*k.p)
}

func (k *kbpsValue) Set(s string) error {
	n, err := parseKbps(s)
	if err != nil {
		return err
	}
	*k.p = n
	return nil
}
