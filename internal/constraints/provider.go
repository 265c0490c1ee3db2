package constraints

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/HendryAvila/designflow/internal/content"
	"github.com/HendryAvila/designflow/internal/session"
)

// Severity classifies a Violation. Only SeverityError blocks a transition.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Violation is a constraint that the submitted content fails to address.
type Violation struct {
	ConstraintID string   `json:"constraint_id"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	Coverage     float64  `json:"coverage"`
}

// ReportDetails carries the findings behind a coverage report.
type ReportDetails struct {
	Violations      []Violation `json:"violations"`
	Recommendations []string    `json:"recommendations"`
}

// Report is the coverage of one piece of content against every phase in
// the catalog and every constraint of a session.
type Report struct {
	Overall     float64            `json:"overall"`
	Phases      map[string]float64 `json:"phases"`
	Constraints map[string]float64 `json:"constraints"`
	Details     ReportDetails      `json:"details"`
}

// ValidationResult is the outcome of ValidateConstraints.
type ValidationResult struct {
	Passed     bool        `json:"passed"`
	Coverage   float64     `json:"coverage"`
	Violations []Violation `json:"violations"`
}

// HasErrors reports whether any violation blocks.
func (v ValidationResult) HasErrors() bool {
	for _, vi := range v.Violations {
		if vi.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Provider scores free text against the catalog.
// It holds no mutable state and is safe for concurrent use.
type Provider struct {
	catalog  *Catalog
	analyzer content.Analyzer
}

// NewProvider creates a provider. A nil analyzer uses the keyword analyzer.
func NewProvider(cat *Catalog, analyzer content.Analyzer) *Provider {
	if analyzer == nil {
		analyzer = content.NewKeywordAnalyzer()
	}
	return &Provider{catalog: cat, analyzer: analyzer}
}

// NewDefaultProvider creates a provider over the embedded catalog.
func NewDefaultProvider() (*Provider, error) {
	cat, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return NewProvider(cat, nil), nil
}

// Catalog returns the provider's catalog.
func (p *Provider) Catalog() *Catalog { return p.catalog }

// Thresholds returns the catalog-wide coverage thresholds.
func (p *Provider) Thresholds() Thresholds { return p.catalog.Thresholds }

// Analyzer returns the content analyzer used for matching.
func (p *Provider) Analyzer() content.Analyzer { return p.analyzer }

// Requirement returns the catalog requirement for a phase.
func (p *Provider) Requirement(phaseID string) (PhaseRequirement, bool) {
	return p.catalog.Phase(phaseID)
}

// PhaseCoverage scores content against one catalog phase. The second
// return is false when the phase is not in the catalog.
func (p *Provider) PhaseCoverage(phaseID, text string) (float64, bool) {
	req, ok := p.catalog.Phase(phaseID)
	if !ok {
		return 0, false
	}
	return p.criteriaCoverage(req.Criteria, text), true
}

func (p *Provider) criteriaCoverage(criteria []string, text string) float64 {
	if len(criteria) == 0 {
		return 100
	}
	return content.Fraction(len(p.analyzer.Matched(text, criteria)), len(criteria))
}

// CoverageReport scores content against every catalog phase and every
// constraint declared in cfg.
func (p *Provider) CoverageReport(cfg session.Config, text string) Report {
	rep := Report{
		Phases:      make(map[string]float64, len(p.catalog.Phases)),
		Constraints: make(map[string]float64, len(cfg.Constraints)),
	}

	var sum float64
	var n int
	for _, req := range p.catalog.Phases {
		cov := p.criteriaCoverage(req.Criteria, text)
		rep.Phases[req.ID] = cov
		sum += cov
		n++
		if floor := p.catalog.PhaseMinimum(req.ID); cov < floor {
			rep.Details.Recommendations = append(rep.Details.Recommendations,
				fmt.Sprintf("Phase '%s' coverage %.0f%% is below %.0f%%: address %s",
					req.ID, cov, floor, strings.Join(p.missing(text, req.Criteria), ", ")))
		}
	}

	validation := p.ValidateConstraints(text, cfg.Constraints)
	for _, con := range p.Resolve(cfg.Constraints) {
		cov := p.constraintCoverage(con, text)
		rep.Constraints[con.ID] = cov
		sum += cov
		n++
	}
	rep.Details.Violations = validation.Violations
	for _, v := range validation.Violations {
		rep.Details.Recommendations = append(rep.Details.Recommendations, v.Message)
	}

	if n > 0 {
		rep.Overall = content.Clamp(sum / float64(n))
	}
	return rep
}

// ValidateConstraints checks content against the given constraints.
// Passed is false iff some violation has severity error.
func (p *Provider) ValidateConstraints(text string, constraints []session.Constraint) ValidationResult {
	res := ValidationResult{Passed: true, Coverage: 100}
	resolved := p.Resolve(constraints)
	if len(resolved) == 0 {
		return res
	}

	minimum := p.catalog.Thresholds.ConstraintMinimum
	var sum float64
	for _, con := range resolved {
		if len(con.Keywords) == 0 {
			res.Violations = append(res.Violations, Violation{
				ConstraintID: con.ID,
				Severity:     SeverityInfo,
				Message:      fmt.Sprintf("Constraint '%s' has no checkable keywords", con.ID),
				Coverage:     100,
			})
			sum += 100
			continue
		}

		cov := p.constraintCoverage(con, text)
		sum += cov
		if cov >= minimum {
			continue
		}
		sev := SeverityWarning
		if con.Mandatory {
			sev = SeverityError
			res.Passed = false
		}
		res.Violations = append(res.Violations, Violation{
			ConstraintID: con.ID,
			Severity:     sev,
			Message: fmt.Sprintf("Constraint '%s' coverage %.0f%% is below %.0f%%: mention %s",
				con.ID, cov, minimum, strings.Join(p.missing(text, con.Keywords), ", ")),
			Coverage: cov,
		})
	}
	res.Coverage = content.Clamp(sum / float64(len(resolved)))
	return res
}

func (p *Provider) constraintCoverage(con session.Constraint, text string) float64 {
	if len(con.Keywords) == 0 {
		return 100
	}
	return content.Fraction(len(p.analyzer.Matched(text, con.Keywords)), len(con.Keywords))
}

func (p *Provider) missing(text string, keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if !p.analyzer.Contains(text, kw) {
			out = append(out, kw)
		}
	}
	return out
}

// Resolve fills in keywords for constraints that declare none: from the
// catalog entry with the same id, otherwise from the significant words of
// the constraint name. Input is not modified.
func (p *Provider) Resolve(constraints []session.Constraint) []session.Constraint {
	out := make([]session.Constraint, 0, len(constraints))
	for _, con := range constraints {
		if len(con.Keywords) == 0 {
			if def, ok := p.catalog.Constraint(con.ID); ok && len(def.Keywords) > 0 {
				con.Keywords = append([]string(nil), def.Keywords...)
			} else {
				con.Keywords = nameKeywords(con.Name)
			}
		}
		out = append(out, con)
	}
	return out
}

// Lookup resolves constraint ids to definitions. Ids unknown to the
// catalog become bare optional constraints named after the id.
func (p *Provider) Lookup(ids []string) []session.Constraint {
	out := make([]session.Constraint, 0, len(ids))
	for _, id := range ids {
		if def, ok := p.catalog.Constraint(id); ok {
			out = append(out, def.Constraint())
			continue
		}
		out = append(out, session.Constraint{ID: id, Name: id, Type: session.ConstraintTechnical})
	}
	return out
}

var stopWords = map[string]bool{
	"with": true, "that": true, "this": true, "must": true, "should": true,
	"from": true, "into": true, "have": true, "will": true, "using": true,
	"based": true, "each": true, "every": true, "only": true, "than": true,
}

// nameKeywords derives keywords from words of at least four letters.
func nameKeywords(name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len([]rune(w)) < 4 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// SortedPhaseIDs returns the report's phase ids in a stable order.
func (r Report) SortedPhaseIDs() []string {
	ids := make([]string, 0, len(r.Phases))
	for id := range r.Phases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
