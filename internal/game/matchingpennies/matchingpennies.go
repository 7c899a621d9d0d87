// Package matchingpennies implements matching pennies: a two-player,
// single-turn, simultaneous-move game with no chance node and no
// private information, used to exercise the referee's ApplyActions path
// and the case where every player acts on the same turn.
package matchingpennies

import "github.com/higcompetition/tournament/internal/game"

// Pennies is the game itself; it holds no per-match state.
type Pennies struct{}

// New returns the matching pennies game.
func New() *Pennies { return &Pennies{} }

func (Pennies) Name() string    { return "matching_pennies" }
func (Pennies) NumPlayers() int { return 2 }

func (Pennies) NewInitialState() game.State {
	return &state{actions: [2]int64{-1, -1}}
}

func (Pennies) MakeObserver(kind game.ObserverKind) game.Observer {
	return &observer{}
}

// state is the single turn of a matching pennies match: both players
// choose heads (0) or tails (1) without seeing the other's choice, and
// the match is terminal as soon as both choices are applied.
type state struct {
	actions  [2]int64
	terminal bool
}

func (s *state) IsTerminal() bool         { return s.terminal }
func (s *state) IsChanceNode() bool       { return false }
func (s *state) IsSimultaneousNode() bool { return !s.terminal }
func (s *state) IsPlayerActing(pl int) bool {
	return !s.terminal
}
func (s *state) CurrentPlayer() int { return -1 } // no single actor: this is a simultaneous node

func (s *state) LegalActions(pl int) []int64 {
	if s.terminal {
		return nil
	}
	return []int64{0, 1} // 0 = heads, 1 = tails
}

func (s *state) ApplyAction(a int64) {
	panic("matchingpennies: matching pennies has no sequential turns, use ApplyActions")
}

func (s *state) ApplyActions(actions []int64) {
	s.actions[0], s.actions[1] = actions[0], actions[1]
	s.terminal = true
}

func (s *state) ChanceOutcomes() []game.ActionProb { return nil }

func (s *state) Returns() []float64 {
	if !s.terminal {
		return []float64{0, 0}
	}
	if s.actions[0] == s.actions[1] {
		return []float64{1, -1} // matcher (player 0) wins
	}
	return []float64{-1, 1}
}

func (s *state) History() []int64 { return s.FullHistory() }

func (s *state) FullHistory() []int64 {
	if !s.terminal {
		return nil
	}
	return []int64{s.actions[0], s.actions[1]}
}

// observer exposes a single constant byte: this game carries no
// common-knowledge or private state beyond the simultaneous choice
// itself, which is by definition hidden from the other player until
// both are applied. The byte exists so the wire payload is never empty.
type observer struct{}

func (*observer) SetFrom(s game.State, pl int) {}
func (*observer) Compress() []byte             { return []byte{0} }
