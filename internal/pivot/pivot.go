// Package pivot decides whether a design session should change direction.
//
// The evaluator scores submitted content on two axes: complexity (how big
// and entangled the design is getting) and entropy (how uncertain it is).
// Either score crossing its threshold triggers a pivot recommendation.
// Pivot decisions are advisory; nothing in the workflow blocks on them.
package pivot

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/HendryAvila/designflow/internal/content"
	"github.com/HendryAvila/designflow/internal/session"
)

// Default thresholds.
const (
	DefaultComplexityThreshold = 85
	DefaultEntropyThreshold    = 75
)

var (
	complexityMarkers = []string{
		"distributed", "microservice", "real-time", "multi-tenant", "integration",
		"migration", "legacy", "scalab", "concurren", "synchroniz", "orchestrat", "compliance",
	}
	uncertaintyMarkers = []string{
		"unclear", "unknown", "tbd", "not sure", "undecided", "unsure",
		"open question", "conflicting", "ambiguous",
	}
	hedgeMarkers = []string{"maybe", "perhaps", "might", "possibly", "probably", "somehow"}
)

// Decision is the outcome of one evaluation. Not persisted.
type Decision struct {
	Triggered    bool     `json:"triggered"`
	Complexity   float64  `json:"complexity"`
	Entropy      float64  `json:"entropy"`
	Threshold    float64  `json:"threshold"`
	Reason       string   `json:"reason,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Options configures an Evaluator. Zero values use the defaults.
type Options struct {
	ComplexityThreshold float64
	EntropyThreshold    float64
}

// Evaluator computes pivot decisions. Safe for concurrent use.
type Evaluator struct {
	complexityThreshold float64
	entropyThreshold    float64
	analyzer            content.Analyzer
}

// NewEvaluator creates an evaluator. A nil analyzer uses the keyword analyzer.
func NewEvaluator(opts Options, analyzer content.Analyzer) *Evaluator {
	if opts.ComplexityThreshold <= 0 {
		opts.ComplexityThreshold = DefaultComplexityThreshold
	}
	if opts.EntropyThreshold <= 0 {
		opts.EntropyThreshold = DefaultEntropyThreshold
	}
	if analyzer == nil {
		analyzer = content.NewKeywordAnalyzer()
	}
	return &Evaluator{
		complexityThreshold: opts.ComplexityThreshold,
		entropyThreshold:    opts.EntropyThreshold,
		analyzer:            analyzer,
	}
}

// EvaluatePivotNeed scores state and content. A nil state contributes no
// constraint, requirement or coverage signal.
func (e *Evaluator) EvaluatePivotNeed(_ context.Context, state *session.State, text string) Decision {
	complexity := e.complexity(state, text)
	entropy := e.entropy(state, text)

	d := Decision{
		Complexity: complexity,
		Entropy:    entropy,
		Threshold:  e.complexityThreshold,
	}

	overComplex := complexity >= e.complexityThreshold
	overEntropy := entropy >= e.entropyThreshold
	if !overComplex && !overEntropy {
		return d
	}

	d.Triggered = true
	var reasons []string
	if overComplex {
		reasons = append(reasons, fmt.Sprintf("complexity %.0f reached threshold %.0f", complexity, e.complexityThreshold))
	}
	if overEntropy {
		reasons = append(reasons, fmt.Sprintf("entropy %.0f reached threshold %.0f", entropy, e.entropyThreshold))
	}
	d.Reason = "Pivot recommended: " + strings.Join(reasons, "; ")

	// The dominant driver's alternatives come first.
	if complexity/e.complexityThreshold >= entropy/e.entropyThreshold {
		d.Alternatives = append(complexityAlternatives(), entropyAlternatives()...)
	} else {
		d.Alternatives = append(entropyAlternatives(), complexityAlternatives()...)
	}
	return d
}

func (e *Evaluator) complexity(state *session.State, text string) float64 {
	words := float64(e.analyzer.Stats(text).Words)
	score := math.Min(words/25, 30)
	score += math.Min(6*float64(countHits(text, complexityMarkers)), 48)
	if state != nil {
		score += 4 * float64(len(state.Config.Constraints))
		score += 2 * float64(len(state.Config.Requirements))
	}
	return content.Clamp(score)
}

func (e *Evaluator) entropy(state *session.State, text string) float64 {
	score := 8 * float64(countHits(text, uncertaintyMarkers))
	score += 4 * float64(countHits(text, hedgeMarkers))
	score += 3 * float64(strings.Count(text, "?"))
	if state != nil {
		score += (100 - content.Clamp(state.Coverage.Overall)) / 5
	}
	return content.Clamp(score)
}

// countHits counts case-insensitive occurrences of every marker.
func countHits(text string, markers []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, m := range markers {
		n += strings.Count(lower, m)
	}
	return n
}

func complexityAlternatives() []string {
	return []string{
		"Split the scope into independently deliverable increments",
		"Simplify the architecture: fewer moving parts, fewer integrations",
		"Defer non-essential requirements to a later iteration",
	}
}

func entropyAlternatives() []string {
	return []string{
		"Run a focused discovery spike to resolve open questions",
		"Return to requirements and pin down ambiguous items",
		"Prototype the riskiest assumption before committing",
	}
}
