package pipeline

import (
	"os"
	"path/filepath"

	"github.com/backmassage/shrinkwebm/internal/naming"
)

// EntryKind classifies a directory entry.
type EntryKind int

const (
	// KindVideo is a regular file with a recognized extension.
	KindVideo EntryKind = iota
	// KindOther is a regular file with any other extension.
	KindOther
	// KindNotRegular is a directory, device, socket, broken symlink, or
	// anything else that is not a regular file after following symlinks.
	KindNotRegular
)

func (k EntryKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindOther:
		return "other"
	default:
		return "not-regular"
	}
}

// Entry is one classified item of the input directory.
type Entry struct {
	Name string
	Path string
	Kind EntryKind
	Size int64
}

// Discover lists the immediate children of inputDir (no recursion) in
// lexicographic order and classifies each against exts.
func Discover(inputDir string, exts []string) ([]Entry, error) {
	dirents, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		entries = append(entries, classifyEntry(filepath.Join(inputDir, d.Name()), exts))
	}
	return entries, nil
}

// classifyEntry stats path (following symlinks) and classifies it.
func classifyEntry(path string, exts []string) Entry {
	e := Entry{Name: filepath.Base(path), Path: path, Kind: KindNotRegular}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return e
	}
	e.Size = fi.Size()
	if naming.HasExtension(e.Name, exts) {
		e.Kind = KindVideo
	} else {
		e.Kind = KindOther
	}
	return e
}
