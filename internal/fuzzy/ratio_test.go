package fuzzy

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 100},
		{"abc", "xyz", 0},
		{"abc", "abd", 200.0 * 2 / 6},
		{"", "", 100},
		{"abc", "", 0},
		{"கலம்", "கலம்", 100},
	}
	for _, tc := range cases {
		if got := Ratio(tc.a, tc.b); !approx(got, tc.want) {
			t.Fatalf("Ratio(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPartialRatioFindsSubstring(t *testing.T) {
	got := PartialRatio("powerhouse", "the mitochondria is the powerhouse of the cell")
	if got != 100 {
		t.Fatalf("expected literal substring to score 100, got %v", got)
	}
}

func TestPartialRatioIsSymmetric(t *testing.T) {
	a, b := "cell", "the cell has many parts"
	if PartialRatio(a, b) != PartialRatio(b, a) {
		t.Fatalf("expected symmetric scores, got %v and %v", PartialRatio(a, b), PartialRatio(b, a))
	}
}

func TestPartialRatioEmpty(t *testing.T) {
	if got := PartialRatio("cell", ""); got != 0 {
		t.Fatalf("expected 0 against empty answer, got %v", got)
	}
	if got := PartialRatio("", ""); got != 100 {
		t.Fatalf("expected 100 for two empty strings, got %v", got)
	}
}

func TestPartialRatioBestWindow(t *testing.T) {
	// only the full window shares three characters; every end window shares at most two
	if got := PartialRatio("abcde", "axcye"); !approx(got, 60) {
		t.Fatalf("expected 60, got %v", got)
	}
}

func TestPartialRatioToleratesTransposition(t *testing.T) {
	got := PartialRatio("powerhouse", "it is the powrehouse of it")
	if got < 60 || got >= 100 {
		t.Fatalf("expected a high but imperfect score, got %v", got)
	}
}

func TestTokenSortRatioIgnoresOrder(t *testing.T) {
	if got := TokenSortRatio("cell the of", "of  the cell"); got != 100 {
		t.Fatalf("expected reordered tokens to score 100, got %v", got)
	}
}

func TestTokenSortRatioNearMatch(t *testing.T) {
	got := TokenSortRatio("The mitochondria is the powerhouse of the cell", "mitochondria is powerhouse of cell")
	if !approx(got, 85) {
		t.Fatalf("expected 85, got %v", got)
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
