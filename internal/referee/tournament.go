package referee

import (
	"math"

	"github.com/higcompetition/tournament/internal/boterrors"
	"github.com/higcompetition/tournament/internal/results"
)

// PlayTournament runs numMatches matches and returns the accumulated
// results:
//
//  1. Start every bot; if any fails its ready handshake, mark all of its
//     prospective matches corrupted and abort without playing.
//  2. Play matches one at a time. After each, a bot whose total errors
//     exceeded max_invalid_behaviors, or which committed any protocol
//     error, has one corrupted match recorded; crossing
//     floor(numMatches * disqualification_rate) disqualifies it and ends
//     the whole tournament immediately. Otherwise the bot is restarted.
//  3. Notify every bot the tournament is over and return.
func (r *Referee) PlayTournament(numMatches int) (*results.Results, error) {
	res := results.New(len(r.channels))

	ready, err := r.StartPlayers()
	if err != nil {
		return nil, err
	}
	allReady := true
	for pl, ok := range ready {
		if !ok {
			res.CorruptedMatches[pl] = numMatches
			allReady = false
		}
	}
	if !allReady {
		return res, nil
	}

	corruptionThreshold := int(math.Floor(float64(numMatches) * r.settings.DisqualificationRate))

	for m := 0; m < numMatches; m++ {
		for pl := range r.errors {
			r.errors[pl].Reset()
		}

		terminal := r.PlayMatch()

		errs := make([]boterrors.Counters, len(r.errors))
		copy(errs, r.errors)
		res.RecordMatch(len(terminal.FullHistory()), terminal.Returns(), errs, terminal.FullHistory())

		r.logger.Info().Int("match", m+1).Int("total", numMatches).Msg("match played")

		if r.settleMatch(res, corruptionThreshold) {
			r.TournamentOver()
			return res, nil
		}
	}

	r.TournamentOver()
	return res, nil
}

// settleMatch applies the per-match corruption/restart decision to
// every bot, and reports whether the tournament must end immediately
// because one of them was just disqualified. corruptedMatchDue treats a
// single protocol error as corrupting regardless of
// max_invalid_behaviors.
func (r *Referee) settleMatch(res *results.Results, corruptionThreshold int) bool {
	for pl := range r.errors {
		corruptedMatchDue := r.errors[pl].Total() > r.settings.MaxInvalidBehaviors || r.errors[pl].ProtocolError > 0
		if !corruptedMatchDue {
			continue
		}

		res.CorruptedMatches[pl]++
		if res.CorruptedMatches[pl] > corruptionThreshold {
			res.Disqualified[pl] = true
			r.logger.Warn().Int("bot", pl).Int("corrupted_matches", res.CorruptedMatches[pl]).Msg("bot disqualified")
			return true
		}
		r.RestartPlayer(pl)
		res.Restarts[pl]++
	}
	return false
}
