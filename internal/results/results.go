// Package results accumulates per-bot statistics across a tournament:
// running mean/variance of returns (Welford's online algorithm), match
// history length, corruption/restart/disqualification counts, and the
// per-match record needed to reconstruct a CSV report.
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/higcompetition/tournament/internal/boterrors"
)

// MatchResult is one played match: its terminal history and the error
// counters/returns each bot accrued during it.
type MatchResult struct {
	TerminalHistory []int64
	Errors          []boterrors.Counters
	Returns         []float64
}

// Results accumulates statistics across a tournament. It is constructed
// fresh for each call to Referee.PlayTournament and returned to the
// caller.
type Results struct {
	NumBots int

	// ReturnsMean and ReturnsAgg are Welford's running mean and sum of
	// squared deviations per bot; ReturnsAgg/matchCount is the
	// population variance.
	ReturnsMean []float64
	ReturnsAgg  []float64
	matchCount  int

	HistoryLenMean float64

	CorruptedMatches []int
	Disqualified     []bool
	Restarts         []int

	Matches []MatchResult
}

// New returns an empty accumulator for a tournament between numBots
// bots.
func New(numBots int) *Results {
	return &Results{
		NumBots:          numBots,
		ReturnsMean:      make([]float64, numBots),
		ReturnsAgg:       make([]float64, numBots),
		CorruptedMatches: make([]int, numBots),
		Disqualified:     make([]bool, numBots),
		Restarts:         make([]int, numBots),
	}
}

// RecordMatch folds one played match into the running statistics and
// appends it to Matches. historyLen is the length of the terminal
// state's full history, used for the mean-match-length statistic;
// terminalHistory is stored verbatim for the CSV report.
func (r *Results) RecordMatch(historyLen int, returns []float64, errors []boterrors.Counters, terminalHistory []int64) {
	r.matchCount++
	n := float64(r.matchCount)

	r.HistoryLenMean += (float64(historyLen) - r.HistoryLenMean) / n

	for pl := 0; pl < r.NumBots; pl++ {
		delta := returns[pl] - r.ReturnsMean[pl]
		r.ReturnsMean[pl] += delta / n
		delta2 := returns[pl] - r.ReturnsMean[pl]
		r.ReturnsAgg[pl] += delta * delta2
	}

	hist := append([]int64(nil), terminalHistory...)
	errs := append([]boterrors.Counters(nil), errors...)
	rtn := append([]float64(nil), returns...)
	r.Matches = append(r.Matches, MatchResult{TerminalHistory: hist, Errors: errs, Returns: rtn})
}

// Variance returns the population variance of bot pl's returns over all
// recorded matches.
func (r *Results) Variance(pl int) float64 {
	if len(r.Matches) == 0 {
		return 0
	}
	return r.ReturnsAgg[pl] / float64(len(r.Matches))
}

// PrintVerbose renders a human-readable summary: total matches, mean
// match length, and per-bot corruption counts and return mean/variance.
func (r *Results) PrintVerbose() string {
	var b strings.Builder
	fmt.Fprintf(&b, "matches played: %d\n", len(r.Matches))
	fmt.Fprintf(&b, "mean match length: %.3f\n", r.HistoryLenMean)
	for pl := 0; pl < r.NumBots; pl++ {
		fmt.Fprintf(&b, "bot #%d: return mean=%.4f variance=%.4f corrupted=%d restarts=%d disqualified=%t\n",
			pl, r.ReturnsMean[pl], r.Variance(pl), r.CorruptedMatches[pl], r.Restarts[pl], r.Disqualified[pl])
	}
	return b.String()
}

// PrintCsv writes one row per recorded match: the space-joined terminal
// history, followed for each bot by returns, protocol_error,
// illegal_actions, ponder_error, time_over. The header row is written
// only if header is true.
func (r *Results) PrintCsv(w io.Writer, header bool) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if header {
		row := []string{"history"}
		for pl := 0; pl < r.NumBots; pl++ {
			row = append(row,
				fmt.Sprintf("bot%d_return", pl),
				fmt.Sprintf("bot%d_protocol_error", pl),
				fmt.Sprintf("bot%d_illegal_actions", pl),
				fmt.Sprintf("bot%d_ponder_error", pl),
				fmt.Sprintf("bot%d_time_over", pl),
			)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, m := range r.Matches {
		parts := make([]string, len(m.TerminalHistory))
		for i, a := range m.TerminalHistory {
			parts[i] = strconv.FormatInt(a, 10)
		}
		row := []string{strings.Join(parts, " ")}
		for pl := 0; pl < r.NumBots; pl++ {
			row = append(row,
				strconv.FormatFloat(m.Returns[pl], 'f', -1, 64),
				strconv.Itoa(m.Errors[pl].ProtocolError),
				strconv.Itoa(m.Errors[pl].IllegalAction),
				strconv.Itoa(m.Errors[pl].PonderError),
				strconv.Itoa(m.Errors[pl].TimeOver),
			)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
