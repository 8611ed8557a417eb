package display

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 B"},
		{"small bytes", 512, "512 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"target size", 10 * 1024 * 1024, "10.0 MiB"},
		{"1 GiB", 1024 * 1024 * 1024, "1.0 GiB"},
		{"typical file 700 MiB", 734003200, "700.0 MiB"},
		{"4.7 GiB", 5046586572, "4.7 GiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.bytes))
		})
	}
}

func TestFormatBytesWithSign(t *testing.T) {
	assert.Equal(t, "+ 1.0 MiB", FormatBytesWithSign(1024*1024))
	assert.Equal(t, "- 1.0 MiB", FormatBytesWithSign(-1024*1024))
	assert.Equal(t, "0 B", FormatBytesWithSign(0))
}

func TestFormatBitrateLabel(t *testing.T) {
	assert.Equal(t, "unknown", FormatBitrateLabel(0))
	assert.Equal(t, "803 kbps", FormatBitrateLabel(803))
	assert.Equal(t, "5.0 Mbps", FormatBitrateLabel(5000))
	assert.Equal(t, "1.2 Mbps", FormatBitrateLabel(1200))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42.0s", FormatDuration(42))
	assert.Equal(t, "0.5s", FormatDuration(0.5))
	assert.Equal(t, "1m40s", FormatDuration(100))
	assert.Equal(t, "16m40s", FormatDuration(1000))
	assert.Equal(t, "2h46m40s", FormatDuration(10000))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "50%", FormatPercent(50, 100))
	assert.Equal(t, "33%", FormatPercent(1, 3))
	assert.Equal(t, "n/a", FormatPercent(5, 0))
}

func TestPrintBanner(t *testing.T) {
	var plain, colored strings.Builder
	PrintBanner(&plain, false, "1.2.3")
	PrintBanner(&colored, true, "1.2.3")

	assert.Contains(t, plain.String(), "v1.2.3")
	assert.NotContains(t, plain.String(), "\033[")
	assert.True(t, strings.HasPrefix(colored.String(), "\033[1;95m"))
	assert.Contains(t, colored.String(), "\033[0m")
}
