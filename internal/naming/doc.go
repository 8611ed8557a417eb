// Package naming derives output paths from input file names and tracks
// which input owns each output path within a run.
package naming
