package naming

import "sync"

// CollisionTracker records which input claimed each output path during a
// run. Two inputs differing only in extension (clip.mp4, clip.mkv) map to the
// same output; the tracker reports the earlier owner so the caller can warn.
// It never renames. All methods are goroutine-safe.
type CollisionTracker struct {
	mu     sync.Mutex
	owners map[string]string // output path -> input path that owns it
}

// NewCollisionTracker creates a ready-to-use tracker.
func NewCollisionTracker() *CollisionTracker {
	return &CollisionTracker{owners: make(map[string]string)}
}

// Claim assigns output to input. When a different input already claimed
// output, Claim returns that input and true; ownership moves to the new
// input since its encode will overwrite the file.
func (ct *CollisionTracker) Claim(input, output string) (previous string, collided bool) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	owner, exists := ct.owners[output]
	ct.owners[output] = input
	if !exists || owner == input {
		return "", false
	}
	return owner, true
}
