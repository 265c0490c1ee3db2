package content

import (
	"math"
	"regexp"
	"strings"
	"testing"
)

func TestContains_CaseInsensitive(t *testing.T) {
	a := NewKeywordAnalyzer()
	if !a.Contains("The STAKEHOLDER map", "stakeholder") {
		t.Error("Contains should ignore case")
	}
	if a.Contains("anything", "") {
		t.Error("empty keyword must never match")
	}
	if a.Contains("", "x") {
		t.Error("empty text must not match a keyword")
	}
}

func TestMatched_KeepsInputOrder(t *testing.T) {
	a := NewKeywordAnalyzer()
	got := a.Matched("goal and problem", []string{"problem", "absent", "goal"})
	if len(got) != 2 || got[0] != "problem" || got[1] != "goal" {
		t.Errorf("Matched = %v, want [problem goal]", got)
	}
}

func TestStats_Structure(t *testing.T) {
	a := NewKeywordAnalyzer()
	text := "# Title\n\nFirst block here.\n\n- bullet one\n- bullet two\n\nLast block."
	st := a.Stats(text)

	if !st.Headings {
		t.Error("expected heading detection")
	}
	if !st.Bullets {
		t.Error("expected bullet detection")
	}
	if st.Blocks != 4 {
		t.Errorf("Blocks = %d, want 4", st.Blocks)
	}
}

func TestStats_NumberedListCountsAsBullet(t *testing.T) {
	st := NewKeywordAnalyzer().Stats("1. first\n2. second")
	if !st.Bullets {
		t.Error("numbered list should count as bullets")
	}
}

func TestStats_Sentences(t *testing.T) {
	st := NewKeywordAnalyzer().Stats("One two three. Four five six! Seven eight nine?")
	if st.Words != 9 {
		t.Errorf("Words = %d, want 9", st.Words)
	}
	if st.Sentences != 3 {
		t.Errorf("Sentences = %d, want 3", st.Sentences)
	}
	if math.Abs(st.AvgWords-3) > 0.001 {
		t.Errorf("AvgWords = %f, want 3", st.AvgWords)
	}
}

func TestStats_Empty(t *testing.T) {
	st := NewKeywordAnalyzer().Stats("")
	if st.Words != 0 || st.Sentences != 0 || st.Blocks != 0 || st.AvgWords != 0 {
		t.Errorf("Stats(empty) = %+v, want zero", st)
	}
}

func TestExtract_CaptureGroup(t *testing.T) {
	re := regexp.MustCompile(`(?i)decided to ([^.]+)`)
	got := NewKeywordAnalyzer().Extract("We decided to use Go. Later we Decided to ship.", re)
	if len(got) != 2 || got[0] != "use Go" || got[1] != "ship" {
		t.Errorf("Extract = %q", got)
	}
}

func TestFractionAndClamp(t *testing.T) {
	tests := []struct {
		matched, total int
		want           float64
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 4, 25},
		{4, 4, 100},
		{5, 4, 100},
	}
	for _, tt := range tests {
		if got := Fraction(tt.matched, tt.total); got != tt.want {
			t.Errorf("Fraction(%d,%d) = %f, want %f", tt.matched, tt.total, got, tt.want)
		}
	}
	if Clamp(-3) != 0 || Clamp(300) != 100 || Clamp(42) != 42 {
		t.Error("Clamp out of bounds")
	}
}

func TestOutputKeyword(t *testing.T) {
	if got := OutputKeyword("problem-statement"); got != "problem statement" {
		t.Errorf("OutputKeyword = %q", got)
	}
}

func TestStats_HugeInput(t *testing.T) {
	text := strings.Repeat("word ", 50000)
	st := NewKeywordAnalyzer().Stats(text)
	if st.Words != 50000 {
		t.Errorf("Words = %d, want 50000", st.Words)
	}
	if st.Sentences != 1 {
		t.Errorf("Sentences = %d, want 1", st.Sentences)
	}
}
