// Package boterrors tallies per-bot protocol violations during a match.
package boterrors

// Counters tracks how many times a bot misbehaved during a single match.
// All fields are non-negative and reset to zero at the start of every match.
type Counters struct {
	ProtocolError int
	IllegalAction int
	PonderError   int
	TimeOver      int
}

// Total returns the sum of all error categories.
func (c Counters) Total() int {
	return c.ProtocolError + c.IllegalAction + c.PonderError + c.TimeOver
}

// Reset zeroes every counter.
func (c *Counters) Reset() {
	*c = Counters{}
}
