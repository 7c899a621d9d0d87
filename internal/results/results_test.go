package results

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/higcompetition/tournament/internal/boterrors"
)

func TestRecordMatchWelfordVariance(t *testing.T) {
	r := New(1)
	returns := [][]float64{{1}, {-1}, {1}, {-1}}
	for _, ret := range returns {
		r.RecordMatch(3, ret, []boterrors.Counters{{}}, []int64{0, 1, 2})
	}

	wantMean := 0.0
	if math.Abs(r.ReturnsMean[0]-wantMean) > 1e-9 {
		t.Errorf("ReturnsMean[0] = %v, want %v", r.ReturnsMean[0], wantMean)
	}
	wantVariance := 1.0 // population variance of {1,-1,1,-1}
	if math.Abs(r.Variance(0)-wantVariance) > 1e-9 {
		t.Errorf("Variance(0) = %v, want %v", r.Variance(0), wantVariance)
	}
	if r.HistoryLenMean != 3 {
		t.Errorf("HistoryLenMean = %v, want 3", r.HistoryLenMean)
	}
	if len(r.Matches) != 4 {
		t.Errorf("len(Matches) = %d, want 4", len(r.Matches))
	}
}

func TestPrintVerboseIncludesDisqualification(t *testing.T) {
	r := New(2)
	r.RecordMatch(2, []float64{1, -1}, []boterrors.Counters{{}, {ProtocolError: 1}}, []int64{0, 1})
	r.CorruptedMatches[1] = 1
	r.Disqualified[1] = true

	out := r.PrintVerbose()
	if !strings.Contains(out, "matches played: 1") {
		t.Errorf("PrintVerbose() missing match count:\n%s", out)
	}
	if !strings.Contains(out, "disqualified=true") {
		t.Errorf("PrintVerbose() missing disqualification for bot 1:\n%s", out)
	}
}

func TestPrintCsvRowShape(t *testing.T) {
	r := New(2)
	r.RecordMatch(3, []float64{2, -2}, []boterrors.Counters{
		{ProtocolError: 1},
		{IllegalAction: 2, TimeOver: 1},
	}, []int64{5, 0, 1})

	var buf bytes.Buffer
	if err := r.PrintCsv(&buf, true); err != nil {
		t.Fatalf("PrintCsv() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (header + one match)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "history,") {
		t.Errorf("header row = %q, want it to start with \"history,\"", lines[0])
	}
	if !strings.HasPrefix(lines[1], "5 0 1,2,1,0,0,0,-2,0,2,0,1") {
		t.Errorf("data row = %q, want history then per-bot stats", lines[1])
	}
}
