// Package config holds runtime configuration: defaults, optional config file
// loading, CLI flag parsing, and validation. Defaults match the original
// compress script: 10 MB target, 16 kbps audio, 16 kbps video floor.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// DefaultExtensions is the recognized video extension set (lowercase, with
// leading dot). Matching is case-insensitive.
var DefaultExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".flv", ".wmv"}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by a config file, and finally by [ParseFlags] before
// being passed (by pointer) to packages that need it.
type Config struct {
	// Paths (set from -i/-o).
	InputDir  string `yaml:"input" json:"input"`
	OutputDir string `yaml:"output" json:"output"`

	// Sizing. Encoding profile itself is fixed (see package ffmpeg).
	TargetSizeMB        float64 `yaml:"target_size_mb" json:"target_size_mb"`                 // Default: 10.
	AudioBitrateKbps    int     `yaml:"audio_bitrate_kbps" json:"audio_bitrate_kbps"`         // Default: 16.
	MinVideoBitrateKbps int     `yaml:"min_video_bitrate_kbps" json:"min_video_bitrate_kbps"` // Default: 16.

	// Recognized input extensions.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// External tools.
	FFmpegBin  string `yaml:"ffmpeg" json:"ffmpeg"`
	FFprobeBin string `yaml:"ffprobe" json:"ffprobe"`

	// Behavior flags.
	DryRun       bool `yaml:"dry_run" json:"dry_run"`
	SkipExisting bool `yaml:"skip_existing" json:"skip_existing"` // Default: false (overwrite).

	// Watch mode.
	Watch         bool          `yaml:"watch" json:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce" json:"watch_debounce"` // Default: 2s.
	ListenAddr    string        `yaml:"listen" json:"listen"`

	// History store DSN: sqlite file path or postgres:// URL. Empty disables.
	HistoryDSN string `yaml:"history" json:"history"`

	// Display and logging.
	Verbose   bool      `yaml:"verbose" json:"verbose"`
	ColorMode ColorMode `yaml:"color" json:"color"`
	LogFile   string    `yaml:"log_file" json:"log_file"`
	CheckOnly bool      `yaml:"-" json:"-"`

	// ConfigFile is the path given via --config (never read from the file itself).
	ConfigFile string `yaml:"-" json:"-"`
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// the config file and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	exts := make([]string, len(DefaultExtensions))
	copy(exts, DefaultExtensions)
	return Config{
		TargetSizeMB:        10,
		AudioBitrateKbps:    16,
		MinVideoBitrateKbps: 16,
		Extensions:          exts,
		FFmpegBin:           "ffmpeg",
		FFprobeBin:          "ffprobe",
		WatchDebounce:       2 * time.Second,
		ColorMode:           ColorAuto,
	}
}

// TargetBytes returns the target output size in bytes (binary megabytes).
func (c *Config) TargetBytes() int64 {
	return int64(c.TargetSizeMB * 1024 * 1024)
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// LoadFile overlays settings from a YAML or JSON file onto c. Keys absent
// from the file keep their current values.
func LoadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".json":
		err = json.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file format: %s", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks value ranges and enum fields, and normalizes the extension
// list. When not in CheckOnly mode it also requires both directory paths.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.TargetSizeMB <= 0 {
		return fmt.Errorf("target size must be positive (got %g MB)", c.TargetSizeMB)
	}
	if c.AudioBitrateKbps <= 0 {
		return fmt.Errorf("audio bitrate must be positive (got %d kbps)", c.AudioBitrateKbps)
	}
	if c.MinVideoBitrateKbps <= 0 {
		return fmt.Errorf("minimum video bitrate must be positive (got %d kbps)", c.MinVideoBitrateKbps)
	}
	if c.FFmpegBin == "" || c.FFprobeBin == "" {
		return errors.New("ffmpeg and ffprobe paths must not be empty")
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = 2 * time.Second
	}

	exts, err := normalizeExtensions(c.Extensions)
	if err != nil {
		return err
	}
	c.Extensions = exts

	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" || c.OutputDir == "" {
		return errors.New("need both --input and --output directories")
	}
	return nil
}

// normalizeExtensions lowercases entries and adds a missing leading dot.
func normalizeExtensions(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, errors.New("extension list must not be empty")
	}
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			return nil, fmt.Errorf("invalid extension %q", e)
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out, nil
}

// parseKbps validates and canonicalizes user bitrate input.
// Accepted forms: "16", "16k", "16K", "16kbps".
func parseKbps(raw string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, errors.New("bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid bitrate %q (use positive Kbps value, e.g. 16k)", raw)
	}
	return n, nil
}
