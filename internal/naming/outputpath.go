package naming

import (
	"path/filepath"
	"strings"
)

// OutputSuffix and OutputExt form the output file name: <stem>_c.webm.
const (
	OutputSuffix = "_c"
	OutputExt    = ".webm"
)

// Stem returns name without its final extension. Leading dots never start
// an extension, so ".mp4" is its own stem and ".hidden.mkv" has stem
// ".hidden".
func Stem(name string) string {
	base := filepath.Base(name)
	if !strings.Contains(strings.TrimLeft(base, "."), ".") {
		return base
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputName maps an input file name to its output file name.
//
//	clip.MP4        -> clip_c.webm
//	my.movie.mkv    -> my.movie_c.webm
//	.mp4            -> .mp4_c.webm
func OutputName(name string) string {
	return Stem(name) + OutputSuffix + OutputExt
}

// OutputPath joins outputDir with OutputName(name).
func OutputPath(outputDir, name string) string {
	return filepath.Join(outputDir, OutputName(name))
}

// HasExtension reports whether name's final extension matches one of exts,
// ignoring case. exts entries carry the leading dot.
func HasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
