package pivot

// Impact buckets a decision for guidance text. Every field is a pure
// function of (complexity, entropy).
type Impact struct {
	TimelineChange    string  `json:"timeline_change"`
	ResourcesRequired string  `json:"resources_required"`
	RiskLevel         string  `json:"risk_level"`
	ConfidenceLevel   float64 `json:"confidence_level"`
}

// Assess buckets a decision.
func Assess(d Decision) Impact {
	return Impact{
		TimelineChange:    TimelineChange(d.Complexity),
		ResourcesRequired: ResourcesRequired(d.Entropy),
		RiskLevel:         RiskLevel(d.Complexity, d.Entropy),
		ConfidenceLevel:   ConfidenceLevel(d.Entropy),
	}
}

// TimelineChange buckets complexity.
func TimelineChange(complexity float64) string {
	switch {
	case complexity > 85:
		return "major"
	case complexity > 70:
		return "significant"
	case complexity > 50:
		return "moderate"
	default:
		return "minimal"
	}
}

// ResourcesRequired buckets entropy.
func ResourcesRequired(entropy float64) string {
	return level(entropy)
}

// RiskLevel buckets the mean of complexity and entropy.
func RiskLevel(complexity, entropy float64) string {
	return level((complexity + entropy) / 2)
}

// ConfidenceLevel is the complement of entropy.
func ConfidenceLevel(entropy float64) float64 {
	return 100 - entropy
}

func level(v float64) string {
	switch {
	case v > 80:
		return "critical"
	case v > 60:
		return "high"
	case v > 40:
		return "medium"
	default:
		return "low"
	}
}
