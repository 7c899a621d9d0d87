// Package referee drives a tournament between N bot processes playing a
// partially-observable game: it owns the game, the per-bot channels, the
// RNG, and the protocol state machine (ready -> start -> {act|ponder}* ->
// match-over -> tournament-over). It is the hard core this repository
// exists to implement; everything else (concrete games, persistence,
// CLI) exists to exercise it.
package referee

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"golang.org/x/xerrors"

	"github.com/higcompetition/tournament/internal/boterrors"
	"github.com/higcompetition/tournament/internal/botchannel"
	"github.com/higcompetition/tournament/internal/game"
	"github.com/higcompetition/tournament/internal/game/registry"
	"github.com/higcompetition/tournament/internal/proc"
)

// Referee owns one game and the set of bots playing it across a
// tournament. The referee task is single-threaded: it never reads a
// child's output directly, only the fields botchannel.Channel exposes.
type Referee struct {
	gameName string
	g        game.Game

	publicObserver  game.Observer
	privateObserver game.Observer

	executables []string
	channels    []*botchannel.Channel
	errors      []boterrors.Counters

	rng      *rand.Rand
	settings Settings
	logger   zerolog.Logger
	errOut   io.Writer // raw stderr sink for bot channels, not the logger
}

// New constructs a referee for gameName across executables, seeded from
// seed. Construction fails fatally if the game name is unknown or any
// executable is missing/non-executable; neither condition is
// recoverable mid-tournament, so both are caught here rather than
// surfacing as a mystery protocol error later.
func New(gameName string, executables []string, settings Settings, seed int64, logger *zerolog.Logger) (*Referee, error) {
	g, err := registry.Lookup(gameName)
	if err != nil {
		return nil, xerrors.Errorf("referee: %w", err)
	}
	if len(executables) != g.NumPlayers() {
		return nil, xerrors.Errorf("referee: %s requires %d players, got %d executables", gameName, g.NumPlayers(), len(executables))
	}
	for _, exe := range executables {
		if err := proc.Validate(exe); err != nil {
			return nil, xerrors.Errorf("referee: %w", err)
		}
	}
	var log zerolog.Logger
	if logger != nil {
		log = *logger
	} else {
		log = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	n := len(executables)
	return &Referee{
		gameName:        gameName,
		g:               g,
		publicObserver:  g.MakeObserver(game.PublicObserver),
		privateObserver: g.MakeObserver(game.PrivateObserver),
		executables:     executables,
		channels:        make([]*botchannel.Channel, n),
		errors:          make([]boterrors.Counters, n),
		rng:             rand.New(rand.NewSource(uint64(seed))),
		settings:        settings,
		logger:          log,
		errOut:          os.Stderr,
	}, nil
}

// NumBots returns the number of bots this referee was constructed with.
func (r *Referee) NumBots() int { return len(r.executables) }

// startPlayerProcess spawns pl's process, wires its channel, resets its
// error counters, and sends the handshake: "<game_name>\n<pl digit>\n".
// It assumes pl < 10.
func (r *Referee) startPlayerProcess(pl int) error {
	ch, err := botchannel.New(pl, r.executables[pl], r.errOut)
	if err != nil {
		return xerrors.Errorf("referee: starting bot #%d: %w", pl, err)
	}
	r.channels[pl] = ch
	r.errors[pl].Reset()

	handshake := fmt.Sprintf("%s\n%d\n", r.gameName, pl)
	if err := ch.Write([]byte(handshake)); err != nil {
		r.logger.Debug().Err(err).Int("bot", pl).Msg("handshake write failed")
	}
	ch.StartRead(r.settings.TimeoutReady)
	return nil
}

// StartPlayer (re)spawns bot pl, sends its handshake, and blocks for the
// full timeout_ready window before checking whether it replied "ready".
func (r *Referee) StartPlayer(pl int) (bool, error) {
	if err := r.startPlayerProcess(pl); err != nil {
		return false, err
	}
	time.Sleep(r.settings.TimeoutReady)
	return r.CheckResponse("ready", pl), nil
}

// StartPlayers spawns every bot, sends every handshake, then blocks once
// for timeout_ready before checking all of their replies. A bot that
// answers early still waits out the full window: this is the
// deliberately simple scheduling policy.
func (r *Referee) StartPlayers() ([]bool, error) {
	for pl := range r.executables {
		if err := r.startPlayerProcess(pl); err != nil {
			return nil, err
		}
	}
	time.Sleep(r.settings.TimeoutReady)

	ready := make([]bool, len(r.executables))
	for pl := range r.executables {
		ready[pl] = r.CheckResponse("ready", pl)
	}
	return ready, nil
}

// CheckResponse cancels pl's in-flight read cycle and compares its
// response against expected. A mismatch increments protocol_error (and
// time_over, if the cycle also timed out) but is never treated as fatal.
func (r *Referee) CheckResponse(expected string, pl int) bool {
	ch := r.channels[pl]
	ch.CancelReadBlocking()
	if ch.Response() == expected {
		return true
	}
	r.errors[pl].ProtocolError++
	if ch.IsTimeOut() {
		r.errors[pl].TimeOver++
	}
	return false
}

// CheckResponses runs CheckResponse for every bot and returns the
// per-bot results.
func (r *Referee) CheckResponses(expected string) []bool {
	ok := make([]bool, len(r.channels))
	for pl := range r.channels {
		ok[pl] = r.CheckResponse(expected, pl)
	}
	return ok
}

// RestartPlayer shuts down and respawns bot pl: a full process respawn
// plus handshake, used after a corrupted-but-not-disqualifying match.
// The returned "ready" bool is intentionally ignored here: a bot that
// fails to restart will simply fail its next turn and be re-counted
// through the normal corruption path rather than being treated
// specially on restart.
func (r *Referee) RestartPlayer(pl int) {
	r.shutDownPlayer(pl)
	_, _ = r.StartPlayer(pl)
}

func (r *Referee) shutDownPlayer(pl int) {
	if ch := r.channels[pl]; ch != nil {
		ch.ShutDown()
		r.channels[pl] = nil
	}
	r.errors[pl].Reset()
}

// ShutDownPlayers tears down every bot channel. Call once the referee is
// done with the tournament.
func (r *Referee) ShutDownPlayers() {
	for pl := range r.channels {
		r.shutDownPlayer(pl)
	}
}

// TournamentOver sends "tournament over" to every bot and waits
// time_tournament_over before returning. This is a best-effort notice:
// the reply is not inspected and failure here never affects any result.
func (r *Referee) TournamentOver() {
	for pl := range r.channels {
		if ch := r.channels[pl]; ch != nil {
			if err := ch.Write([]byte("tournament over\n")); err != nil {
				r.logger.Debug().Err(err).Int("bot", pl).Msg("tournament-over write failed")
			}
		}
	}
	time.Sleep(r.settings.TimeTournamentOver)
}
