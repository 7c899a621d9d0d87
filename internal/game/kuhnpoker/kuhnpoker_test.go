package kuhnpoker

import (
	"testing"

	"github.com/higcompetition/tournament/internal/game"
)

func TestChanceOutcomesSumToOne(t *testing.T) {
	k := New()
	s := k.NewInitialState()
	if !s.IsChanceNode() {
		t.Fatal("initial state should be a chance node")
	}
	var sum float64
	seen := map[int64]bool{}
	for _, o := range s.ChanceOutcomes() {
		sum += o.Prob
		if seen[o.Action] {
			t.Fatalf("duplicate chance action %d", o.Action)
		}
		seen[o.Action] = true
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("chance outcome probabilities sum to %v, want 1", sum)
	}
	if len(seen) != 6 {
		t.Errorf("got %d distinct deals, want 6", len(seen))
	}
}

func TestCheckCheckShowdown(t *testing.T) {
	s := New().NewInitialState()
	s.ApplyAction(int64(2*numCards + 0)) // player 0 gets King, player 1 gets Jack
	if s.IsChanceNode() {
		t.Fatal("state should no longer be a chance node after the deal")
	}
	if !s.IsPlayerActing(0) {
		t.Fatal("player 0 should act first")
	}
	s.ApplyAction(0) // check
	if !s.IsPlayerActing(1) {
		t.Fatal("player 1 should act second")
	}
	s.ApplyAction(0) // check
	if !s.IsTerminal() {
		t.Fatal("check-check should be terminal")
	}
	returns := s.Returns()
	if returns[0] != 1 || returns[1] != -1 {
		t.Errorf("Returns() = %v, want [1 -1] (player 0 holds the King)", returns)
	}
}

func TestBetFold(t *testing.T) {
	s := New().NewInitialState()
	s.ApplyAction(int64(0*numCards + 2)) // player 0 gets Jack, player 1 gets King
	s.ApplyAction(1)                     // bet
	s.ApplyAction(0)                     // fold
	if !s.IsTerminal() {
		t.Fatal("bet-fold should be terminal")
	}
	if returns := s.Returns(); returns[0] != 1 || returns[1] != -1 {
		t.Errorf("Returns() = %v, want [1 -1] (the bettor wins the ante)", returns)
	}
}

func TestLegalActionsOnlyForActingPlayer(t *testing.T) {
	s := New().NewInitialState()
	s.ApplyAction(int64(1*numCards + 2))
	if got := s.LegalActions(1); got != nil {
		t.Errorf("LegalActions(1) = %v, want nil (player 1 is not acting)", got)
	}
	if got := s.LegalActions(0); len(got) != 2 {
		t.Errorf("LegalActions(0) = %v, want [0 1]", got)
	}
}

func TestObserversReflectPrivateAndPublicInfo(t *testing.T) {
	k := New()
	s := k.NewInitialState()
	s.ApplyAction(int64(0*numCards + 2))
	s.ApplyAction(1) // player 0 bets

	pub := k.MakeObserver(game.PublicObserver)
	pub.SetFrom(s, 0)
	pubBytes := pub.Compress()

	priv0 := k.MakeObserver(game.PrivateObserver)
	priv0.SetFrom(s, 0)
	priv1 := k.MakeObserver(game.PrivateObserver)
	priv1.SetFrom(s, 1)

	if string(priv0.Compress()) == string(priv1.Compress()) {
		t.Error("the two players' private observations should differ (different cards)")
	}
	// Public history should be shared between bets of a calling observer
	// at the same state.
	pubAgain := k.MakeObserver(game.PublicObserver)
	pubAgain.SetFrom(s, 1)
	if string(pubBytes) != string(pubAgain.Compress()) {
		t.Error("public observation should not depend on which player asked for it")
	}
}
