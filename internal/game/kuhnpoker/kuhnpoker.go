// Package kuhnpoker implements Kuhn poker: a two-player, one-card-each
// game with a single chance node (the deal) and private information
// (each player's own card), used to exercise the referee's sequential
// and chance-node paths end to end.
package kuhnpoker

import "github.com/higcompetition/tournament/internal/game"

const numCards = 3

// Kuhn is the game itself; it holds no per-match state.
type Kuhn struct{}

// New returns the Kuhn poker game.
func New() *Kuhn { return &Kuhn{} }

func (Kuhn) Name() string    { return "kuhn_poker" }
func (Kuhn) NumPlayers() int { return 2 }

func (Kuhn) NewInitialState() game.State {
	return &state{cards: [2]int{-1, -1}}
}

func (Kuhn) MakeObserver(kind game.ObserverKind) game.Observer {
	if kind == game.PrivateObserver {
		return &privateObserver{}
	}
	return &publicObserver{}
}

// state is one position in a Kuhn poker match. Before the deal it is a
// chance node; afterwards it is a two-player betting round of at most
// three actions (check/bet encoded as 0/1).
type state struct {
	cards   [2]int // dealt cards, -1 until the chance node resolves
	dealt   bool
	history []int // betting actions taken after the deal
}

func (s *state) IsChanceNode() bool { return !s.dealt }

func (s *state) IsTerminal() bool {
	if !s.dealt {
		return false
	}
	switch len(s.history) {
	case 0, 1:
		return false
	case 2:
		return !(s.history[0] == 0 && s.history[1] == 1)
	default:
		return true
	}
}

func (s *state) IsSimultaneousNode() bool { return false }

func (s *state) CurrentPlayer() int {
	switch len(s.history) {
	case 0:
		return 0
	case 1:
		return 1
	default: // len == 2, and not terminal means history == [0, 1]
		return 0
	}
}

func (s *state) IsPlayerActing(pl int) bool {
	return s.dealt && !s.IsTerminal() && s.CurrentPlayer() == pl
}

func (s *state) LegalActions(pl int) []int64 {
	if !s.IsPlayerActing(pl) {
		return nil
	}
	return []int64{0, 1} // 0 = check/fold, 1 = bet/call
}

func (s *state) ApplyAction(a int64) {
	if !s.dealt {
		s.cards[0] = int(a / numCards)
		s.cards[1] = int(a % numCards)
		s.dealt = true
		return
	}
	s.history = append(s.history, int(a))
}

func (s *state) ApplyActions(actions []int64) {
	panic("kuhnpoker: Kuhn poker has no simultaneous-move turns")
}

func (s *state) ChanceOutcomes() []game.ActionProb {
	outcomes := make([]game.ActionProb, 0, numCards*(numCards-1))
	for c0 := 0; c0 < numCards; c0++ {
		for c1 := 0; c1 < numCards; c1++ {
			if c0 == c1 {
				continue
			}
			outcomes = append(outcomes, game.ActionProb{
				Action: int64(c0*numCards + c1),
				Prob:   1.0 / float64(numCards*(numCards-1)),
			})
		}
	}
	return outcomes
}

func (s *state) Returns() []float64 {
	if !s.IsTerminal() {
		return []float64{0, 0}
	}
	h := s.history
	switch {
	case len(h) == 2 && h[0] == 0 && h[1] == 0: // check, check: small showdown
		return showdown(s.cards, 1)
	case len(h) == 2 && h[0] == 1 && h[1] == 0: // bet, fold: better wins the ante
		return []float64{1, -1}
	case len(h) == 2 && h[0] == 1 && h[1] == 1: // bet, call: big showdown
		return showdown(s.cards, 2)
	case len(h) == 3 && h[2] == 0: // check, bet, fold: bettor wins the ante
		return []float64{-1, 1}
	case len(h) == 3 && h[2] == 1: // check, bet, call: big showdown
		return showdown(s.cards, 2)
	}
	return []float64{0, 0}
}

// showdown pays stake to whichever player holds the higher card.
func showdown(cards [2]int, stake float64) []float64 {
	if cards[0] > cards[1] {
		return []float64{stake, -stake}
	}
	return []float64{-stake, stake}
}

func (s *state) History() []int64     { return s.FullHistory() }
func (s *state) FullHistory() []int64 {
	h := make([]int64, 0, 1+len(s.history))
	if s.dealt {
		h = append(h, int64(s.cards[0]*numCards+s.cards[1]))
	}
	for _, a := range s.history {
		h = append(h, int64(a))
	}
	return h
}

// publicObserver exposes only the betting history, which both players
// see regardless of their cards.
type publicObserver struct {
	buf []byte
}

func (o *publicObserver) SetFrom(s game.State, pl int) {
	ks := s.(*state)
	o.buf = o.buf[:0]
	o.buf = append(o.buf, byte(len(ks.history)))
	for _, a := range ks.history {
		o.buf = append(o.buf, byte(a))
	}
}

func (o *publicObserver) Compress() []byte {
	out := make([]byte, len(o.buf))
	copy(out, o.buf)
	return out
}

// privateObserver exposes the betting history plus the observing
// player's own card (0xFF before the deal).
type privateObserver struct {
	buf []byte
}

func (o *privateObserver) SetFrom(s game.State, pl int) {
	ks := s.(*state)
	o.buf = o.buf[:0]
	card := byte(0xFF)
	if ks.dealt {
		card = byte(ks.cards[pl])
	}
	o.buf = append(o.buf, card, byte(len(ks.history)))
	for _, a := range ks.history {
		o.buf = append(o.buf, byte(a))
	}
}

func (o *privateObserver) Compress() []byte {
	out := make([]byte, len(o.buf))
	copy(out, o.buf)
	return out
}
