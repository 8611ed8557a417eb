// Package pipeline orchestrates one-level directory discovery, sequential
// per-file probe/plan/encode, watch mode, and batch summary reporting.
//
// Files:
//   - discover.go: Discover lists and classifies directory entries.
//   - runner.go:   Runner.Run drives the batch; processEntry handles one file.
//   - watch.go:    Runner.Watch feeds debounced fsnotify events through the
//     same per-file path.
//   - stats.go:    RunStats counters.
package pipeline
