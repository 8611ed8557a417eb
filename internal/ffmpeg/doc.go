// Package ffmpeg builds and runs the fixed VP9/Opus WebM encode command.
//
// Files:
//   - builder.go:    Build assembles the argument slice from a BitratePlan.
//   - executor.go:   Execute runs one invocation and captures stderr.
//   - errors.go:     Classify maps well-known stderr text to a short hint.
//   - transcoder.go: Transcoder binds probe and encode to configured binaries.
package ffmpeg
