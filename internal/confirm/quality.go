package confirm

import (
	"github.com/HendryAvila/designflow/internal/content"
)

// Quality ratings.
const (
	RatingGood             = "good"
	RatingAcceptable       = "acceptable"
	RatingNeedsImprovement = "needs_improvement"
)

// Quality is the output-quality breakdown. All scores are 0-100.
type Quality struct {
	Length       float64 `json:"length"`
	Structure    float64 `json:"structure"`
	Clarity      float64 `json:"clarity"`
	Completeness float64 `json:"completeness"`
	Score        float64 `json:"score"`
	Rating       string  `json:"rating"`
}

// AssessQuality scores text against a phase's expected outputs.
func AssessQuality(a content.Analyzer, text string, outputs []string) Quality {
	st := a.Stats(text)
	q := Quality{
		Length:    lengthScore(st.Words),
		Structure: structureScore(st),
		Clarity:   clarityScore(st.AvgWords),
	}

	if len(outputs) == 0 {
		q.Completeness = 100
	} else {
		found := 0
		for _, out := range outputs {
			if a.Contains(text, content.OutputKeyword(out)) {
				found++
			}
		}
		q.Completeness = content.Fraction(found, len(outputs))
	}

	q.Score = (q.Length + q.Structure + q.Clarity + q.Completeness) / 4
	q.Rating = rate(q.Score)
	return q
}

func lengthScore(words int) float64 {
	switch {
	case words < 100:
		return 30
	case words < 300:
		return 60
	case words < 1000:
		return 90
	default:
		return 100
	}
}

func structureScore(st content.Stats) float64 {
	score := 0.0
	if st.Headings {
		score += 40
	}
	if st.Bullets {
		score += 30
	}
	if st.Blocks > 2 {
		score += 30
	}
	return score
}

func clarityScore(avg float64) float64 {
	switch {
	case avg >= 10 && avg <= 20:
		return 90
	case avg >= 8 && avg <= 25:
		return 75
	case avg >= 5 && avg <= 30:
		return 60
	default:
		return 40
	}
}

func rate(score float64) string {
	switch {
	case score >= 75:
		return RatingGood
	case score >= 50:
		return RatingAcceptable
	default:
		return RatingNeedsImprovement
	}
}
