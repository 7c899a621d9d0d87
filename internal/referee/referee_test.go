package referee

import (
	"os"
	"testing"
	"time"
)

func writeBotScript(t *testing.T, body string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "bot-*.sh")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(body); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := os.Chmod(f.Name(), 0755); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

// wellBehavedBot replies "ready"/"start" on cue and then, for every
// observation line it receives, replies "0" if legal actions were
// appended (it is acting) or "ponder" otherwise. It acknowledges each
// "match over" and announces "start" for the next match, and exits on
// "tournament over".
func wellBehavedBot(t *testing.T) string {
	return writeBotScript(t, `#!/bin/sh
read game
read idx
echo ready
echo start
while read line; do
  case "$line" in
    "match over"*)
      echo "match over"
      echo start
      ;;
    "tournament over")
      break
      ;;
    *)
      set -- $line
      if [ $# -gt 2 ]; then
        echo 0
      else
        echo ponder
      fi
      ;;
  esac
done
`)
}

func fastSettings() Settings {
	return Settings{
		TimeoutReady:         150 * time.Millisecond,
		TimeoutStart:         150 * time.Millisecond,
		TimeoutAct:           150 * time.Millisecond,
		TimeoutPonder:        150 * time.Millisecond,
		TimeoutMatchOver:     150 * time.Millisecond,
		TimeTournamentOver:   20 * time.Millisecond,
		MaxInvalidBehaviors:  2,
		DisqualificationRate: 0.5,
	}
}

// Both bots reply correctly throughout a full match; no errors should
// be recorded.
func TestPlayTournamentKuhnPokerHappyPath(t *testing.T) {
	bot0, bot1 := wellBehavedBot(t), wellBehavedBot(t)

	r, err := New("kuhn_poker", []string{bot0, bot1}, fastSettings(), 42, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.ShutDownPlayers()

	res, err := r.PlayTournament(1)
	if err != nil {
		t.Fatalf("PlayTournament() error = %v", err)
	}

	if len(res.Matches) != 1 {
		t.Fatalf("len(Matches) = %d, want 1", len(res.Matches))
	}
	for pl := 0; pl < 2; pl++ {
		total := res.Matches[0].Errors[pl].Total()
		if total != 0 {
			t.Errorf("bot %d: Total() = %d, want 0 (errors: %+v)", pl, total, res.Matches[0].Errors[pl])
		}
		if res.CorruptedMatches[pl] != 0 {
			t.Errorf("bot %d: CorruptedMatches = %d, want 0", pl, res.CorruptedMatches[pl])
		}
	}
}

// Exercises the simultaneous-apply path: both bots act on the single
// turn, both answers are legal, neither counter increments.
func TestPlayTournamentMatchingPenniesHappyPath(t *testing.T) {
	bot0, bot1 := wellBehavedBot(t), wellBehavedBot(t)

	r, err := New("matching_pennies", []string{bot0, bot1}, fastSettings(), 7, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.ShutDownPlayers()

	res, err := r.PlayTournament(2)
	if err != nil {
		t.Fatalf("PlayTournament() error = %v", err)
	}

	if len(res.Matches) != 2 {
		t.Fatalf("len(Matches) = %d, want 2", len(res.Matches))
	}
	for _, m := range res.Matches {
		for pl := 0; pl < 2; pl++ {
			if total := m.Errors[pl].Total(); total != 0 {
				t.Errorf("bot %d: Total() = %d, want 0", pl, total)
			}
		}
	}
}

// One bot fails its ready handshake. StartPlayers should report it as
// not-ready and the tournament should abort with every one of its
// prospective matches marked corrupted.
func TestPlayTournamentAbortsWhenReadyFails(t *testing.T) {
	good := wellBehavedBot(t)
	bad := writeBotScript(t, `#!/bin/sh
read game
read idx
echo banana
`)

	r, err := New("matching_pennies", []string{good, bad}, fastSettings(), 1, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.ShutDownPlayers()

	const numMatches = 5
	res, err := r.PlayTournament(numMatches)
	if err != nil {
		t.Fatalf("PlayTournament() error = %v", err)
	}

	if len(res.Matches) != 0 {
		t.Fatalf("len(Matches) = %d, want 0 (tournament should abort before playing)", len(res.Matches))
	}
	if res.CorruptedMatches[1] != numMatches {
		t.Errorf("CorruptedMatches[1] = %d, want %d", res.CorruptedMatches[1], numMatches)
	}
}

// Bot #1 corrupts every match it plays (its action reply is always
// unparsable, so protocol_error > 0 every match regardless of
// max_invalid_behaviors). With disqualification_rate 0.5 over 3
// matches, the threshold is floor(3*0.5) = 1: it should be disqualified
// after its second corrupted match, ending the tournament with exactly
// 2 matches recorded.
func TestPlayTournamentDisqualifiesAfterCrossingThreshold(t *testing.T) {
	good := wellBehavedBot(t)
	troublemaker := writeBotScript(t, `#!/bin/sh
read game
read idx
echo ready
echo start
while read line; do
  case "$line" in
    "match over"*)
      echo "match over"
      break
      ;;
    *)
      set -- $line
      if [ $# -gt 2 ]; then
        echo notanumber
      else
        echo ponder
      fi
      ;;
  esac
done
`)

	settings := fastSettings()
	settings.DisqualificationRate = 0.5
	settings.MaxInvalidBehaviors = 100 // irrelevant: protocol_error alone corrupts the match

	r, err := New("matching_pennies", []string{good, troublemaker}, settings, 3, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer r.ShutDownPlayers()

	res, err := r.PlayTournament(3)
	if err != nil {
		t.Fatalf("PlayTournament() error = %v", err)
	}

	if len(res.Matches) != 2 {
		t.Fatalf("len(Matches) = %d, want 2", len(res.Matches))
	}
	if !res.Disqualified[1] {
		t.Error("bot 1 should be disqualified")
	}
	if res.Disqualified[0] {
		t.Error("bot 0 should not be disqualified")
	}
	if res.CorruptedMatches[1] != 2 {
		t.Errorf("CorruptedMatches[1] = %d, want 2", res.CorruptedMatches[1])
	}
}
