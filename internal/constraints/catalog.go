// Package constraints is the constraint provider: it owns phase
// requirement definitions, declared constraints and the coverage scoring
// over free text.
//
// Definitions live in a YAML catalog. The built-in catalog is embedded;
// an alternate one can be loaded from disk.
package constraints

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/designflow/internal/session"
)

//go:embed design-constraints.yaml
var defaultCatalogYAML []byte

// Thresholds are the minimum coverage scores a session must reach.
type Thresholds struct {
	OverallMinimum    float64 `yaml:"overall_minimum" json:"overall_minimum"`
	PhaseMinimum      float64 `yaml:"phase_minimum" json:"phase_minimum"`
	ConstraintMinimum float64 `yaml:"constraint_minimum" json:"constraint_minimum"`
}

// PhaseRequirement defines what a phase must contain.
type PhaseRequirement struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	MinCoverage float64  `yaml:"min_coverage" json:"min_coverage"`
	Inputs      []string `yaml:"inputs" json:"inputs"`
	Outputs     []string `yaml:"outputs" json:"outputs"`
	Criteria    []string `yaml:"criteria" json:"criteria"`
}

// Phase builds a pending session phase from the requirement.
func (r PhaseRequirement) Phase() *session.Phase {
	return &session.Phase{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Inputs:      append([]string(nil), r.Inputs...),
		Outputs:     append([]string(nil), r.Outputs...),
		Criteria:    append([]string(nil), r.Criteria...),
		Status:      session.PhasePending,
	}
}

// ConstraintDefinition is a well-known constraint in the catalog.
type ConstraintDefinition struct {
	ID          string                 `yaml:"id"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Type        session.ConstraintType `yaml:"type"`
	Mandatory   bool                   `yaml:"mandatory"`
	Keywords    []string               `yaml:"keywords"`
}

// Constraint converts the definition to the session model.
func (d ConstraintDefinition) Constraint() session.Constraint {
	return session.Constraint{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Type:        d.Type,
		Mandatory:   d.Mandatory,
		Keywords:    append([]string(nil), d.Keywords...),
	}
}

// Catalog is the parsed constraint configuration.
type Catalog struct {
	Version     int                    `yaml:"version"`
	Thresholds  Thresholds             `yaml:"coverage_thresholds"`
	Phases      []PhaseRequirement     `yaml:"phases"`
	Constraints []ConstraintDefinition `yaml:"constraints"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// LoadCatalog reads a catalog file from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading constraint catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing constraint catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks the catalog for structural errors.
func (c *Catalog) Validate() error {
	for name, v := range map[string]float64{
		"overall_minimum":    c.Thresholds.OverallMinimum,
		"phase_minimum":      c.Thresholds.PhaseMinimum,
		"constraint_minimum": c.Thresholds.ConstraintMinimum,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("invalid catalog: %s must be within 0-100, got %v", name, v)
		}
	}

	seen := make(map[string]bool, len(c.Phases))
	for _, p := range c.Phases {
		if p.ID == "" {
			return fmt.Errorf("invalid catalog: phase with empty id")
		}
		if seen[p.ID] {
			return fmt.Errorf("invalid catalog: duplicate phase %q", p.ID)
		}
		seen[p.ID] = true
		if p.MinCoverage < 0 || p.MinCoverage > 100 {
			return fmt.Errorf("invalid catalog: phase %q min_coverage must be within 0-100", p.ID)
		}
	}

	for _, con := range c.Constraints {
		if con.ID == "" {
			return fmt.Errorf("invalid catalog: constraint with empty id")
		}
		if err := session.ValidateConstraintType(con.Type); err != nil {
			return fmt.Errorf("invalid catalog: constraint %q: %w", con.ID, err)
		}
	}
	return nil
}

// Phase returns the requirement for id.
func (c *Catalog) Phase(id string) (PhaseRequirement, bool) {
	for _, p := range c.Phases {
		if p.ID == id {
			return p, true
		}
	}
	return PhaseRequirement{}, false
}

// Constraint returns the catalog definition for id.
func (c *Catalog) Constraint(id string) (ConstraintDefinition, bool) {
	for _, con := range c.Constraints {
		if con.ID == id {
			return con, true
		}
	}
	return ConstraintDefinition{}, false
}

// PhaseMinimum returns the phase's own minimum, falling back to the
// catalog-wide phase minimum.
func (c *Catalog) PhaseMinimum(id string) float64 {
	if p, ok := c.Phase(id); ok && p.MinCoverage > 0 {
		return p.MinCoverage
	}
	return c.Thresholds.PhaseMinimum
}
