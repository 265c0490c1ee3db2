package methodology

import "github.com/HendryAvila/designflow/internal/session"

// Built-in profile ids.
const (
	DoubleDiamond = "double-diamond"
	LeanMVP       = "lean-mvp"
	PolicyFirst   = "policy-first"
)

// builtins returns fresh copies of the built-in profiles.
func builtins() []Profile {
	return []Profile{
		{
			ID:          DoubleDiamond,
			Name:        "Double Diamond",
			Description: "Diverge and converge twice: understand the problem, then the solution.",
			Phases:      []string{"discover", "define", "develop", "deliver"},
			Definitions: map[string]PhaseDefinition{
				"discover": {
					Name:        "Discover",
					Description: "Research the problem space broadly before narrowing.",
					Inputs:      []string{"goal", "context"},
					Outputs:     []string{"research-findings", "user-needs"},
					Criteria:    []string{"research", "user", "need", "insight"},
				},
				"define": {
					Name:        "Define",
					Description: "Converge on a single problem definition.",
					Inputs:      []string{"research-findings"},
					Outputs:     []string{"problem-definition", "design-brief"},
					Criteria:    []string{"problem", "scope", "requirement", "priority"},
				},
				"develop": {
					Name:        "Develop",
					Description: "Explore candidate solutions and their trade-offs.",
					Inputs:      []string{"design-brief"},
					Outputs:     []string{"solution-options", "prototype"},
					Criteria:    []string{"option", "architecture", "trade-off", "prototype"},
				},
				"deliver": {
					Name:        "Deliver",
					Description: "Commit to a solution and plan its delivery.",
					Inputs:      []string{"solution-options"},
					Outputs:     []string{"specification", "delivery-plan"},
					Criteria:    []string{"specification", "milestone", "risk", "test"},
				},
			},
		},
		{
			ID:          LeanMVP,
			Name:        "Lean MVP",
			Description: "The shortest path to a testable product: skip dedicated architecture and specification phases.",
			Phases:      []string{session.PhaseDiscovery, session.PhaseRequirements, session.PhasePlanning},
		},
		{
			ID:          PolicyFirst,
			Name:        "Policy First",
			Description: "Regulated domains: analyze policy and compliance obligations before requirements.",
			Phases: []string{
				"policy-analysis",
				session.PhaseRequirements,
				session.PhaseArchitecture,
				session.PhaseSpecification,
				session.PhasePlanning,
			},
			Definitions: map[string]PhaseDefinition{
				"policy-analysis": {
					Name:        "Policy Analysis",
					Description: "Identify the regulations, policies and obligations the design must honor.",
					Inputs:      []string{"goal", "context"},
					Outputs:     []string{"policy-inventory", "compliance-obligations"},
					Criteria:    []string{"policy", "regulation", "compliance", "audit", "data retention"},
				},
			},
		},
	}
}
