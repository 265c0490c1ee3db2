package pivot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/designflow/internal/session"
)

func stateWith(constraints, requirements int, overall float64) *session.State {
	st := &session.State{Coverage: session.NewCoverage()}
	for i := 0; i < constraints; i++ {
		st.Config.Constraints = append(st.Config.Constraints, session.Constraint{ID: "c"})
	}
	for i := 0; i < requirements; i++ {
		st.Config.Requirements = append(st.Config.Requirements, "r")
	}
	st.Coverage.Overall = overall
	return st
}

func TestEvaluate_CalmContentDoesNotTrigger(t *testing.T) {
	e := NewEvaluator(Options{}, nil)
	d := e.EvaluatePivotNeed(context.Background(), stateWith(1, 2, 90), "A small login page with a form.")

	assert.False(t, d.Triggered)
	assert.Empty(t, d.Reason)
	assert.Empty(t, d.Alternatives)
	assert.Equal(t, float64(DefaultComplexityThreshold), d.Threshold)
}

func TestEvaluate_ComplexityFormula(t *testing.T) {
	e := NewEvaluator(Options{}, nil)
	d := e.EvaluatePivotNeed(context.Background(), stateWith(2, 3, 100), "distributed migration plan now")

	// words 4/25 = 0.16; markers: distributed, migration = 12; 8 constraints; 6 requirements.
	assert.InDelta(t, 0.16+12+8+6, d.Complexity, 0.001)
}

func TestEvaluate_MarkerContributionCapped(t *testing.T) {
	e := NewEvaluator(Options{}, nil)
	text := strings.Repeat("distributed ", 20)
	d := e.EvaluatePivotNeed(context.Background(), nil, text)

	// 20 words => 0.8; markers capped at 48.
	assert.InDelta(t, 48.8, d.Complexity, 0.001)
}

func TestEvaluate_EntropyFormula(t *testing.T) {
	e := NewEvaluator(Options{}, nil)
	d := e.EvaluatePivotNeed(context.Background(), stateWith(0, 0, 50), "Unclear. Maybe? Maybe?")

	// 1 uncertainty (8) + 2 hedges (8) + 2 '?' (6) + (100-50)/5 (10).
	assert.InDelta(t, 32, d.Entropy, 0.001)
}

func TestEvaluate_HighEntropyTriggers(t *testing.T) {
	e := NewEvaluator(Options{}, nil)
	text := strings.Repeat("It is unclear and unknown, maybe TBD? ", 3)
	d := e.EvaluatePivotNeed(context.Background(), stateWith(0, 0, 0), text)

	require.True(t, d.Triggered)
	assert.Contains(t, d.Reason, "entropy")
	require.NotEmpty(t, d.Alternatives)
	assert.Contains(t, d.Alternatives[0], "discovery spike")
}

func TestEvaluate_HighComplexityTriggers(t *testing.T) {
	e := NewEvaluator(Options{}, nil)
	text := strings.Repeat("distributed multi-tenant real-time integration ", 10) + strings.Repeat("word ", 800)
	d := e.EvaluatePivotNeed(context.Background(), stateWith(3, 5, 100), text)

	require.True(t, d.Triggered)
	assert.Contains(t, d.Reason, "complexity")
	assert.Contains(t, d.Alternatives[0], "Split the scope")
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	e := NewEvaluator(Options{ComplexityThreshold: 5, EntropyThreshold: 99}, nil)
	d := e.EvaluatePivotNeed(context.Background(), stateWith(2, 0, 100), "plain")

	assert.True(t, d.Triggered)
	assert.Equal(t, 5.0, d.Threshold)
}

func TestEvaluate_ScoresBounded(t *testing.T) {
	e := NewEvaluator(Options{}, nil)
	inputs := []string{
		"",
		strings.Repeat("unclear maybe ??? distributed ", 10000),
		"\x00\xff",
	}
	for _, in := range inputs {
		d := e.EvaluatePivotNeed(context.Background(), stateWith(50, 50, -10), in)
		assert.GreaterOrEqual(t, d.Complexity, 0.0)
		assert.LessOrEqual(t, d.Complexity, 100.0)
		assert.GreaterOrEqual(t, d.Entropy, 0.0)
		assert.LessOrEqual(t, d.Entropy, 100.0)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := NewEvaluator(Options{}, nil)
	st := stateWith(2, 2, 40)
	text := "Perhaps a distributed design? Unknown load."
	a := e.EvaluatePivotNeed(context.Background(), st, text)
	b := e.EvaluatePivotNeed(context.Background(), st, text)
	assert.Equal(t, a, b)
}

// --- Buckets ---

func TestTimelineChange(t *testing.T) {
	tests := []struct {
		c    float64
		want string
	}{
		{100, "major"}, {85.1, "major"}, {85, "significant"}, {70.5, "significant"},
		{70, "moderate"}, {51, "moderate"}, {50, "minimal"}, {0, "minimal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimelineChange(tt.c), "complexity %v", tt.c)
	}
}

func TestResourcesRequired(t *testing.T) {
	tests := []struct {
		e    float64
		want string
	}{
		{81, "critical"}, {80, "high"}, {61, "high"}, {60, "medium"},
		{41, "medium"}, {40, "low"}, {0, "low"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResourcesRequired(tt.e), "entropy %v", tt.e)
	}
}

func TestRiskLevel_UsesMean(t *testing.T) {
	assert.Equal(t, "critical", RiskLevel(100, 62))
	assert.Equal(t, "high", RiskLevel(100, 60))
	assert.Equal(t, "medium", RiskLevel(50, 40))
	assert.Equal(t, "low", RiskLevel(40, 40))
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, 70.0, ConfidenceLevel(30))
	assert.Equal(t, 100.0, ConfidenceLevel(0))
}

func TestAssess_SamePairSameBuckets(t *testing.T) {
	pairs := [][2]float64{{0, 0}, {51, 41}, {71, 61}, {86, 81}, {85, 80}, {100, 100}}
	for _, p := range pairs {
		a := Assess(Decision{Complexity: p[0], Entropy: p[1], Reason: "a", Triggered: true})
		b := Assess(Decision{Complexity: p[0], Entropy: p[1], Reason: "b"})
		assert.Equal(t, a, b, "pair %v", p)
	}
}
