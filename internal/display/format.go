// Package display holds human-readable formatters and the startup banner.
package display

import (
	"fmt"
	"time"
)

var byteUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

// FormatBytes returns a human-readable size (B, KiB, MiB, ...).
func FormatBytes(bytes int64) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	v := float64(bytes)
	unit := -1
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[unit])
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "- 1.2 GiB").
func FormatBytesWithSign(bytes int64) string {
	switch {
	case bytes > 0:
		return "+ " + FormatBytes(bytes)
	case bytes < 0:
		return "- " + FormatBytes(-bytes)
	default:
		return FormatBytes(0)
	}
}

// FormatBitrateLabel returns a short label for a bitrate in kbps
// ("803 kbps", "5.0 Mbps"). Non-positive values are "unknown".
func FormatBitrateLabel(kbps int64) string {
	switch {
	case kbps <= 0:
		return "unknown"
	case kbps < 1000:
		return fmt.Sprintf("%d kbps", kbps)
	default:
		return fmt.Sprintf("%.1f Mbps", float64(kbps)/1000)
	}
}

// FormatDuration renders seconds as "42.0s" under a minute and as a rounded
// Go duration ("16m40s", "2h46m40s") above.
func FormatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	return time.Duration(seconds * float64(time.Second)).Round(time.Second).String()
}

// FormatPercent returns part as a whole-number percentage of whole, or "n/a".
func FormatPercent(part, whole int64) string {
	if whole <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", (part*100+whole/2)/whole)
}
