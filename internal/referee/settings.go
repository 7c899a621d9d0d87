package referee

import "time"

// Settings is the tournament configuration: the deadlines for each
// protocol phase, the error threshold at which a bot's actions start
// being substituted, and the corrupted-match rate that triggers
// disqualification.
type Settings struct {
	TimeoutReady         time.Duration
	TimeoutStart         time.Duration
	TimeoutAct           time.Duration
	TimeoutPonder        time.Duration
	TimeoutMatchOver     time.Duration
	TimeTournamentOver   time.Duration
	MaxInvalidBehaviors  int
	DisqualificationRate float64
}

// DefaultSettings returns reasonable defaults for interactive use. The
// CLI driver does not call it; its flag defaults carry the same values.
func DefaultSettings() Settings {
	return Settings{
		TimeoutReady:         2 * time.Second,
		TimeoutStart:         2 * time.Second,
		TimeoutAct:           1 * time.Second,
		TimeoutPonder:        1 * time.Second,
		TimeoutMatchOver:     1 * time.Second,
		TimeTournamentOver:   500 * time.Millisecond,
		MaxInvalidBehaviors:  3,
		DisqualificationRate: 0.1,
	}
}
