package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/shrinkwebm/internal/config"
)

func TestUseColor_ForcedModes(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, UseColor(config.ColorAlways), "always ignores NO_COLOR")
	assert.False(t, UseColor(config.ColorNever))
}

func TestUseColor_AutoHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, UseColor(config.ColorAuto))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(nil))

	f, err := os.Create(filepath.Join(t.TempDir(), "plain"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f), "regular file is not a TTY")
}
