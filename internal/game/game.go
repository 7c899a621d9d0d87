// Package game declares the contract the referee expects of a game-rules
// engine: states, legal actions, terminality, chance sampling, and
// observers that turn a state into the bytes shipped to a bot. The
// referee core in internal/referee treats every concrete game as one of
// these; the referee itself never special-cases a particular game.
package game

// ActionProb pairs a legal chance action with its probability, as
// returned by State.ChanceOutcomes.
type ActionProb struct {
	Action int64
	Prob   float64
}

// ObserverKind selects which half of a state a Game.MakeObserver call
// should produce: the common-knowledge view, or one player's private
// view.
type ObserverKind int

const (
	PublicObserver ObserverKind = iota
	PrivateObserver
)

// State is one position in a single match of some game.
type State interface {
	IsTerminal() bool
	IsChanceNode() bool
	IsSimultaneousNode() bool

	// IsPlayerActing reports whether pl must supply an action this turn.
	// It is always false on a chance node.
	IsPlayerActing(pl int) bool

	// CurrentPlayer is only meaningful on a sequential (non-simultaneous,
	// non-chance) node; callers must check IsChanceNode/
	// IsSimultaneousNode first.
	CurrentPlayer() int

	// LegalActions lists the actions pl may take this turn. Undefined
	// when pl is not acting.
	LegalActions(pl int) []int64

	ApplyAction(a int64)
	ApplyActions(actions []int64)

	// ChanceOutcomes lists the possible outcomes of a chance node with
	// their probabilities, which must sum to 1.
	ChanceOutcomes() []ActionProb

	// Returns gives each player's final payoff. Only meaningful once
	// IsTerminal is true.
	Returns() []float64

	// History is the sequence of actions applied so far, including
	// chance outcomes. FullHistory is the same for every game in this
	// package; games with simultaneous-move turns that want to report a
	// per-player view may differentiate the two.
	History() []int64
	FullHistory() []int64
}

// Observer turns a State into a fixed-shape byte payload for one player.
// A single Observer instance is reused across calls: SetFrom overwrites
// whatever it is holding, and Compress reads back out of that same
// internal buffer. This mirrors the referee's "reusable observation
// scratch buffer" rather than allocating a fresh observation every turn.
type Observer interface {
	SetFrom(s State, pl int)
	Compress() []byte
}

// Game is a named game plus the means to start a fresh match and build
// its observers.
type Game interface {
	Name() string
	NumPlayers() int
	NewInitialState() State
	MakeObserver(kind ObserverKind) Observer
}
