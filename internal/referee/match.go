package referee

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/higcompetition/tournament/internal/game"
)

// pollInterval is the granularity of the act-phase busy-wait: a bot
// that finishes early lets the referee move on without waiting out the
// full deadline.
const pollInterval = time.Millisecond

// PlayMatch plays one match to completion and returns its terminal
// state: the start handshake, the per-turn loop (observe -> act/ponder
// -> apply), and the match-over handshake. No error aborts a match;
// every recoverable condition is instead folded into the bot's error
// counters and a substituted action.
func (r *Referee) PlayMatch() game.State {
	state := r.g.NewInitialState()

	for pl := range r.channels {
		r.channels[pl].StartRead(r.settings.TimeoutStart)
	}
	time.Sleep(r.settings.TimeoutStart)
	r.CheckResponses("start")

	for !state.IsTerminal() {
		r.playTurn(state)
	}

	r.finishMatch(state)
	return state
}

// playTurn runs one iteration of the per-turn protocol state machine:
// observe, act-or-ponder, apply.
func (r *Referee) playTurn(state game.State) {
	n := len(r.channels)
	acting, anyActing := r.actingPlayers(state, n)
	order := r.rng.Perm(n)

	r.sendObservations(state, order, acting)
	r.startTurnReads(order, acting)
	actDeadline := time.Now().Add(r.settings.TimeoutAct)

	time.Sleep(r.settings.TimeoutPonder)
	r.checkPonders(acting)

	if anyActing {
		r.waitForActors(acting, actDeadline)
	}
	for pl := 0; pl < n; pl++ {
		r.channels[pl].CancelReadBlocking()
	}

	actions := r.collectActions(state, acting)
	r.applyTurn(state, acting, actions)
}

// actingPlayers reports, for each player, whether they must act this
// turn. A chance node makes every player ponder.
func (r *Referee) actingPlayers(state game.State, n int) ([]bool, bool) {
	acting := make([]bool, n)
	if state.IsChanceNode() {
		return acting, false
	}
	any := false
	for pl := 0; pl < n; pl++ {
		if state.IsPlayerActing(pl) {
			acting[pl] = true
			any = true
		}
	}
	return acting, any
}

// sendObservations writes each player's observation (and, if they are
// acting, their legal actions) to their stdin, in the shuffled order.
// Reusing the referee's two observer instances avoids allocating a fresh
// observation every turn.
func (r *Referee) sendObservations(state game.State, order []int, acting []bool) {
	for _, pl := range order {
		r.publicObserver.SetFrom(state, pl)
		r.privateObserver.SetFrom(state, pl)
		pubB64 := base64.StdEncoding.EncodeToString(r.publicObserver.Compress())
		privB64 := base64.StdEncoding.EncodeToString(r.privateObserver.Compress())

		line := pubB64 + " " + privB64
		if acting[pl] {
			for _, a := range state.LegalActions(pl) {
				line += " " + strconv.FormatInt(a, 10)
			}
		}
		line += "\n"

		if err := r.channels[pl].Write([]byte(line)); err != nil {
			r.logger.Debug().Err(err).Int("bot", pl).Msg("observation write failed")
		}
	}
}

// startTurnReads begins a read cycle for every player, bounded by
// timeout_act for acting players and timeout_ponder for everyone else.
func (r *Referee) startTurnReads(order []int, acting []bool) {
	for _, pl := range order {
		if acting[pl] {
			r.channels[pl].StartRead(r.settings.TimeoutAct)
		} else {
			r.channels[pl].StartRead(r.settings.TimeoutPonder)
		}
	}
}

// checkPonders inspects every non-acting player's response after the
// referee has slept out the full ponder window, so ponderers get the
// full window regardless of the observation order.
func (r *Referee) checkPonders(acting []bool) {
	for pl, isActing := range acting {
		if isActing {
			continue
		}
		ch := r.channels[pl]
		if ch.Response() != "ponder" {
			r.errors[pl].PonderError++
			if ch.IsTimeOut() {
				r.errors[pl].TimeOver++
			}
		}
	}
}

// waitForActors busy-waits in pollInterval increments until either
// deadline has elapsed or every acting player has a complete response,
// whichever comes first. deadline is measured from when the act-phase
// reads were started, not from when waitForActors is called, so the
// ponder-phase sleep that runs first doesn't eat into an actor's
// timeout_act window.
func (r *Referee) waitForActors(acting []bool, deadline time.Time) {
	for {
		allIn := true
		for pl, isActing := range acting {
			if isActing && !r.channels[pl].HasRead() {
				allIn = false
				break
			}
		}
		if allIn || time.Now().After(deadline) {
			return
		}
		time.Sleep(pollInterval)
	}
}

// collectActions resolves each acting player's candidate action from
// its response, then applies the corruption override: once a bot's
// accumulated errors exceed max_invalid_behaviors, its action for the
// rest of the match is always a substituted random legal one, isolating
// the game state from a misbehaving bot while still letting the match
// finish.
func (r *Referee) collectActions(state game.State, acting []bool) []int64 {
	n := len(acting)
	actions := make([]int64, n)
	for pl := 0; pl < n; pl++ {
		if !acting[pl] {
			continue
		}
		legal := state.LegalActions(pl)
		actions[pl] = r.resolveAction(pl, legal)
		if r.errors[pl].Total() > r.settings.MaxInvalidBehaviors {
			actions[pl] = r.randomLegal(legal)
		}
	}
	return actions
}

// resolveAction parses bot pl's response into a candidate action,
// tallying exactly one error category when the response is unusable and
// none when it names a legal action.
func (r *Referee) resolveAction(pl int, legal []int64) int64 {
	ch := r.channels[pl]
	if ch.IsTimeOut() {
		r.errors[pl].TimeOver++
		return r.randomLegal(legal)
	}
	resp := ch.Response()
	if resp == "" {
		r.errors[pl].ProtocolError++
		return r.randomLegal(legal)
	}
	val, err := strconv.ParseInt(resp, 10, 64)
	if err != nil {
		r.errors[pl].ProtocolError++
		return r.randomLegal(legal)
	}
	for _, a := range legal {
		if a == val {
			return val
		}
	}
	r.errors[pl].IllegalAction++
	return r.randomLegal(legal)
}

func (r *Referee) randomLegal(legal []int64) int64 {
	return legal[r.rng.Intn(len(legal))]
}

// applyTurn applies the resolved actions to state, dispatching on node
// type: a chance node samples from the game's chance distribution, a
// simultaneous node applies every acting player's action together, and
// a sequential node applies only the current player's action.
func (r *Referee) applyTurn(state game.State, acting []bool, actions []int64) {
	switch {
	case state.IsChanceNode():
		state.ApplyAction(r.sampleChance(state.ChanceOutcomes()))
	case state.IsSimultaneousNode():
		state.ApplyActions(actions)
	default:
		state.ApplyAction(actions[state.CurrentPlayer()])
	}
}

// sampleChance draws one outcome from the chance distribution using the
// referee's own RNG.
func (r *Referee) sampleChance(outcomes []game.ActionProb) int64 {
	u := r.rng.Float64()
	cum := 0.0
	for _, o := range outcomes {
		cum += o.Prob
		if u < cum {
			return o.Action
		}
	}
	return outcomes[len(outcomes)-1].Action
}

// finishMatch sends every bot "match over <score>\n" and waits for the
// match_over acknowledgement. <score> is the integer cast of the float
// return: fractional rewards are lost by design.
func (r *Referee) finishMatch(state game.State) {
	returns := state.Returns()
	for pl := range r.channels {
		score := int64(returns[pl])
		if err := r.channels[pl].Write([]byte(fmt.Sprintf("match over %d\n", score))); err != nil {
			r.logger.Debug().Err(err).Int("bot", pl).Msg("match-over write failed")
		}
		r.channels[pl].StartRead(r.settings.TimeoutMatchOver)
	}
	time.Sleep(r.settings.TimeoutMatchOver)
	r.CheckResponses("match over")
}
