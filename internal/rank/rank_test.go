package rank

import (
	"math"
	"testing"
)

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Tier
	}{
		{1.0, TierCritical},
		{0.95, TierCritical},
		{0.9, TierCritical},
		{0.8999, TierHigh},
		{0.75, TierHigh},
		{0.7, TierHigh},
		{0.6999, TierModerate},
		{0.65, TierModerate},
		{0.6, TierModerate},
		{0.5999, TierLow},
		{0.10, TierLow},
		{0, TierLow},
	}

	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%v) = '%s', want '%s'", tt.score, got, tt.want)
		}
	}
}

func TestTierFor_NaNIsLow(t *testing.T) {
	if got := TierFor(math.NaN()); got != TierLow {
		t.Errorf("expected NaN to be low, got '%s'", got)
	}
}

func TestTierFor_Total(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		score := float64(i) / 1000
		switch TierFor(score) {
		case TierCritical, TierHigh, TierModerate, TierLow:
		default:
			t.Fatalf("score %v has no tier", score)
		}
	}
}

func TestRank_SortsDescending(t *testing.T) {
	results := Rank(map[string]float64{
		"doc_1": 0.10,
		"doc_2": 0.95,
		"doc_3": 0.65,
		"doc_4": 0.75,
	})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	wantIDs := []string{"doc_2", "doc_4", "doc_3", "doc_1"}
	wantTiers := []Tier{TierCritical, TierHigh, TierModerate, TierLow}
	for i, r := range results {
		if r.DocumentID != wantIDs[i] {
			t.Errorf("position %d: expected '%s', got '%s'", i, wantIDs[i], r.DocumentID)
		}
		if r.Tier != wantTiers[i] {
			t.Errorf("position %d: expected tier '%s', got '%s'", i, wantTiers[i], r.Tier)
		}
		if r.Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, r.Rank)
		}
	}
}

func TestRank_TiesBrokenByDocumentID(t *testing.T) {
	for run := 0; run < 20; run++ {
		results := Rank(map[string]float64{
			"doc_c": 0.5,
			"doc_a": 0.5,
			"doc_b": 0.5,
			"doc_z": 0.8,
		})

		want := []string{"doc_z", "doc_a", "doc_b", "doc_c"}
		for i, r := range results {
			if r.DocumentID != want[i] {
				t.Fatalf("run %d position %d: expected '%s', got '%s'", run, i, want[i], r.DocumentID)
			}
		}
	}
}

func TestRank_DoesNotMutateScores(t *testing.T) {
	scores := map[string]float64{"doc_3": 0.87, "doc_1": 0.2}
	results := Rank(scores)

	if scores["doc_3"] != 0.87 || scores["doc_1"] != 0.2 {
		t.Errorf("input scores changed: %v", scores)
	}
	if results[0].Score != 0.87 {
		t.Errorf("expected score 0.87, got %v", results[0].Score)
	}
}

func TestRank_Empty(t *testing.T) {
	if results := Rank(nil); results != nil {
		t.Errorf("expected nil for empty input, got %v", results)
	}

	if _, ok := Top(nil); ok {
		t.Error("expected no top result for empty set")
	}
}
