package service

import "github.com/salaedu/sala-api/pkg/config"

// Grade classification labels, ordered from best to worst.
const (
	GradeExcellent  = "excellent"
	GradeVeryGood   = "very_good"
	GradeGood       = "good"
	GradeFairlyGood = "fairly_good"
	GradeAverage    = "average"
	GradeWeak       = "weak"
)

// gradeFor classifies a score against the configured band thresholds. Bands
// are fractions of the maximum score, compared best-first.
func gradeFor(value float64, cfg config.GradingConfig) string {
	max := cfg.MaxScore
	if max <= 0 {
		max = 10
	}
	ratio := value / max
	switch {
	case ratio >= cfg.Excellent:
		return GradeExcellent
	case ratio >= cfg.VeryGood:
		return GradeVeryGood
	case ratio >= cfg.Good:
		return GradeGood
	case ratio >= cfg.FairlyGood:
		return GradeFairlyGood
	case ratio >= cfg.Average:
		return GradeAverage
	default:
		return GradeWeak
	}
}
