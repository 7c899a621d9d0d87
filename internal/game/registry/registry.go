// Package registry resolves a game name to a concrete game.Game. It is
// the "load the game by name" step of referee construction, and
// supplies the two concrete games this repository can actually run.
package registry

import (
	"golang.org/x/xerrors"

	"github.com/higcompetition/tournament/internal/game"
	"github.com/higcompetition/tournament/internal/game/kuhnpoker"
	"github.com/higcompetition/tournament/internal/game/matchingpennies"
)

// Lookup returns the game registered under name, or an error describing
// the known names if none matches.
func Lookup(name string) (game.Game, error) {
	switch name {
	case "kuhn_poker":
		return kuhnpoker.New(), nil
	case "matching_pennies":
		return matchingpennies.New(), nil
	default:
		return nil, xerrors.Errorf("unknown game %q (known games: kuhn_poker, matching_pennies)", name)
	}
}
