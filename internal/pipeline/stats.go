package pipeline

// RunStats tracks aggregate counters and byte totals across a batch run.
// Watch mode keeps adding to the same counters.
type RunStats struct {
	Total            int   `json:"total"`
	Current          int   `json:"current"`
	Encoded          int   `json:"encoded"`
	Skipped          int   `json:"skipped"`
	Failed           int   `json:"failed"`
	Clamped          int   `json:"clamped"`
	OverTarget       int   `json:"over_target"`
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}
