// Command referee is the CLI driver: it resolves flags into a game name,
// bot executables, a seed, and the tournament settings, then constructs
// and runs a referee.Referee and reports the results. An optional .env
// file is loaded into the process environment first; no flag takes its
// value from the environment.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/higcompetition/tournament/internal/proc"
	"github.com/higcompetition/tournament/internal/referee"
	"github.com/higcompetition/tournament/internal/results"
	"github.com/higcompetition/tournament/internal/store"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	game                 string
	bots                 string
	seed                 int64
	matches              int
	timeoutReady         time.Duration
	timeoutStart         time.Duration
	timeoutAct           time.Duration
	timeoutPonder        time.Duration
	timeoutMatchOver     time.Duration
	timeTournamentOver   time.Duration
	maxInvalidBehaviors  int
	disqualificationRate float64
	resultsDSN           string
	csvPath              string
	runID                string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "referee",
		Short: "Run a Hidden Information Game Competition tournament between bot executables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}

	flagSet := cmd.Flags()
	flagSet.StringVar(&f.game, "game", "kuhn_poker", "name of the game to play (kuhn_poker, matching_pennies)")
	flagSet.StringVar(&f.bots, "bots", "", "comma-separated paths to bot executables, one per player")
	flagSet.Int64Var(&f.seed, "seed", 1, "RNG seed for chance outcomes and observation ordering")
	flagSet.IntVar(&f.matches, "matches", 1, "number of matches to play")
	flagSet.DurationVar(&f.timeoutReady, "timeout-ready", 2*time.Second, `time allowed for a bot to reply "ready" after spawn`)
	flagSet.DurationVar(&f.timeoutStart, "timeout-start", 2*time.Second, `time allowed for a bot to reply "start" at match begin`)
	flagSet.DurationVar(&f.timeoutAct, "timeout-act", time.Second, "time allowed for an acting bot to reply with an action")
	flagSet.DurationVar(&f.timeoutPonder, "timeout-ponder", time.Second, `time allowed for a non-acting bot to reply "ponder"`)
	flagSet.DurationVar(&f.timeoutMatchOver, "timeout-match-over", time.Second, "time allowed for a bot to acknowledge match end")
	flagSet.DurationVar(&f.timeTournamentOver, "timeout-tournament-over", 500*time.Millisecond, `grace period after sending "tournament over"`)
	flagSet.IntVar(&f.maxInvalidBehaviors, "max-invalid-behaviors", 3, "per-match error threshold above which a bot's actions are substituted")
	flagSet.Float64Var(&f.disqualificationRate, "disqualification-rate", 0.1, "fraction of matches a bot may corrupt before disqualification")
	flagSet.StringVar(&f.resultsDSN, "results-dsn", "", "optional Postgres DSN to persist match results to")
	flagSet.StringVar(&f.csvPath, "csv", "", "optional path to write a CSV report to")
	flagSet.StringVar(&f.runID, "run-id", "", "opaque id to tag persisted rows with (defaults to \"<game>-<seed>\")")

	return cmd
}

func run(ctx context.Context, f *flags) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	executables := splitAndTrim(f.bots)
	if len(executables) == 0 {
		return fmt.Errorf("--bots must list at least one bot executable")
	}
	for _, exe := range executables {
		// The referee's own constructor re-validates and is the
		// authority; this is only an earlier, friendlier error.
		if err := proc.Validate(exe); err != nil {
			return err
		}
	}

	settings := referee.Settings{
		TimeoutReady:         f.timeoutReady,
		TimeoutStart:         f.timeoutStart,
		TimeoutAct:           f.timeoutAct,
		TimeoutPonder:        f.timeoutPonder,
		TimeoutMatchOver:     f.timeoutMatchOver,
		TimeTournamentOver:   f.timeTournamentOver,
		MaxInvalidBehaviors:  f.maxInvalidBehaviors,
		DisqualificationRate: f.disqualificationRate,
	}

	ref, err := referee.New(f.game, executables, settings, f.seed, &logger)
	if err != nil {
		return err
	}
	defer ref.ShutDownPlayers()

	res, err := ref.PlayTournament(f.matches)
	if err != nil {
		return err
	}

	logger.Info().Msg(res.PrintVerbose())

	if f.csvPath != "" {
		if err := writeCsv(f.csvPath, res); err != nil {
			return fmt.Errorf("writing csv report: %w", err)
		}
	}

	if f.resultsDSN != "" {
		if err := persistResults(ctx, f, res); err != nil {
			logger.Warn().Err(err).Msg("failed to persist results; tournament outcome unaffected")
		}
	}

	return nil
}

func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeCsv(path string, res *results.Results) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return res.PrintCsv(out, true)
}

// persistResults writes every recorded match to the configured Postgres
// database. A failure here is reported to the caller to log, but never
// changes the tournament's outcome: the referee core already returned.
func persistResults(ctx context.Context, f *flags, res *results.Results) error {
	db, err := store.Open(ctx, f.resultsDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	runID := f.runID
	if runID == "" {
		runID = fmt.Sprintf("%s-%d", f.game, f.seed)
	}
	for _, m := range res.Matches {
		if err := db.RecordMatch(ctx, runID, f.game, m.TerminalHistory, m.Errors, m.Returns); err != nil {
			return err
		}
	}
	return nil
}
