package planner

// Estimate is the predicted output size for a plan, for dry-run and log
// display.
type Estimate struct {
	Bytes     int64
	SourcePct int // predicted output as a percentage of the source size
	Known     bool
}

// EstimateBytes predicts the output size in bytes for plan over durationSec
// seconds. It inverts the arithmetic in Plan, so an unclamped plan estimates
// at or just under the target.
func EstimateBytes(plan BitratePlan, durationSec float64) int64 {
	if durationSec <= 0 {
		return 0
	}
	kbit := float64(plan.TotalKbps()) * durationSec
	return int64(kbit * 1024 / 8)
}

// EstimateSize extends EstimateBytes with a ratio against the source file.
// Known is false when sourceBytes is not positive.
func EstimateSize(plan BitratePlan, durationSec float64, sourceBytes int64) Estimate {
	est := Estimate{Bytes: EstimateBytes(plan, durationSec)}
	if sourceBytes <= 0 || est.Bytes <= 0 {
		return est
	}
	pct := (est.Bytes*100 + sourceBytes/2) / sourceBytes
	est.SourcePct = int(pct)
	est.Known = true
	return est
}
