package boterrors

import "testing"

func TestTotal(t *testing.T) {
	c := Counters{ProtocolError: 1, IllegalAction: 2, PonderError: 3, TimeOver: 4}
	if got := c.Total(); got != 10 {
		t.Errorf("Total() = %d, want 10", got)
	}
}

func TestReset(t *testing.T) {
	c := Counters{ProtocolError: 1, IllegalAction: 2, PonderError: 3, TimeOver: 4}
	c.Reset()
	if c.Total() != 0 {
		t.Errorf("Reset() left Total() = %d, want 0", c.Total())
	}
	if c != (Counters{}) {
		t.Errorf("Reset() = %+v, want zero value", c)
	}
}
