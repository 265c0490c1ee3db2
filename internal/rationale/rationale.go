// Package rationale captures the reasoning behind completed phases.
//
// Content submitted for a phase is scanned for decision, assumption,
// alternative and risk phrasing. The resulting Rationale is appended to a
// per-session log that is independent of session state and can be
// exported as markdown, JSON or YAML.
package rationale

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/HendryAvila/designflow/internal/content"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Kind classifies a rationale record.
type Kind string

const (
	KindDecision    Kind = "decision"
	KindAssumption  Kind = "assumption"
	KindAlternative Kind = "alternative"
	KindRisk        Kind = "risk"
)

// Record is one extracted statement.
type Record struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Statement string `json:"statement"`
}

// Rationale is the reasoning captured when a phase was confirmed.
type Rationale struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	PhaseID      string    `json:"phase_id"`
	Timestamp    time.Time `json:"timestamp"`
	Decisions    []Record  `json:"decisions"`
	Assumptions  []Record  `json:"assumptions"`
	Alternatives []Record  `json:"alternatives"`
	Risks        []Record  `json:"risks"`
}

// Records returns every record in decision, assumption, alternative, risk
// order.
func (r Rationale) Records() []Record {
	out := make([]Record, 0, len(r.Decisions)+len(r.Assumptions)+len(r.Alternatives)+len(r.Risks))
	out = append(out, r.Decisions...)
	out = append(out, r.Assumptions...)
	out = append(out, r.Alternatives...)
	out = append(out, r.Risks...)
	return out
}

var patterns = map[Kind]*regexp.Regexp{
	KindDecision:    regexp.MustCompile(`(?i)\b(?:decided to|chose|selected|opted for)\s+([^.\n]+)`),
	KindAssumption:  regexp.MustCompile(`(?i)\b(?:assum(?:e|es|ed|ing)|expect that|should be)\s+([^.\n]+)`),
	KindAlternative: regexp.MustCompile(`(?i)\b(?:alternatively,?|could also|option to)\s+([^.\n]+)`),
	KindRisk:        regexp.MustCompile(`(?i)\b(?:risk of|concern about|potential issue(?:s)?(?: with)?:?)\s+([^.\n]+)`),
}

// Extract scans text for rationale phrasing. When nothing matches, a
// single generic decision record notes that the phase was completed.
func Extract(analyzer content.Analyzer, sessionID, phaseID, text string) Rationale {
	if analyzer == nil {
		analyzer = content.NewKeywordAnalyzer()
	}
	r := Rationale{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		PhaseID:   phaseID,
		Timestamp: timeNow().UTC(),
	}

	records := func(kind Kind) []Record {
		var out []Record
		for _, s := range analyzer.Extract(text, patterns[kind]) {
			out = append(out, Record{ID: uuid.NewString(), Kind: kind, Statement: s})
		}
		return out
	}
	r.Decisions = records(KindDecision)
	r.Assumptions = records(KindAssumption)
	r.Alternatives = records(KindAlternative)
	r.Risks = records(KindRisk)

	if len(r.Records()) == 0 {
		r.Decisions = []Record{{
			ID:        uuid.NewString(),
			Kind:      KindDecision,
			Statement: fmt.Sprintf("Phase '%s' completed", phaseID),
		}}
	}
	return r
}
