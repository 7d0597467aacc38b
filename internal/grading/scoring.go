package grading

import (
	"math"

	"github.com/noah-isme/rubric-grader-api/internal/models"
)

// SectionScore computes a student's score for one section. A finite override
// always wins. Otherwise every entered slot contributes its score minus the
// slot deduction (when the section allows deductions), clamped to [0,100],
// and the contributions collapse by the section's scoring mode. It returns
// nil when nothing was entered.
func SectionScore(section models.SectionConfig, record models.StudentSectionRecord) *float64 {
	if finite(record.OverrideScore) {
		return ptr(clampFloat(*record.OverrideScore, 0, 100))
	}

	adjusted := make([]float64, 0, section.Slots)
	for slot := 0; slot < section.Slots && slot < len(record.Scores); slot++ {
		score := record.Scores[slot]
		if !finite(score) {
			continue
		}
		deduction := 0.0
		if section.AllowDeductions && slot < len(record.Deductions) {
			deduction = clampFloat(float64(record.Deductions[slot]), 0, 100)
		}
		adjusted = append(adjusted, clampFloat(*score-deduction, 0, 100))
	}
	if len(adjusted) == 0 {
		return nil
	}

	if section.ScoringMode == models.ScoringModeHighest {
		best := adjusted[0]
		for _, value := range adjusted[1:] {
			best = math.Max(best, value)
		}
		return ptr(best)
	}
	sum := 0.0
	for _, value := range adjusted {
		sum += value
	}
	return ptr(sum / float64(len(adjusted)))
}

// StudentFinalScore computes the weighted final grade. Ungraded sections are
// left out of both the weighted sum and the weight denominator, so a partly
// graded student is scored on what has been entered. A finite total override
// wins; nil means nothing weighted has been graded.
func StudentFinalScore(state *models.GradingState, student *models.StudentRecord) *float64 {
	if student == nil {
		return nil
	}
	if finite(student.TotalOverride) {
		return ptr(clampFloat(*student.TotalOverride, 0, 100))
	}
	if state == nil {
		return nil
	}

	weighted, weightUsed := 0.0, 0.0
	for i, section := range state.Sections {
		if i >= len(student.Sections) {
			break
		}
		score := SectionScore(section, student.Sections[i])
		if score == nil {
			continue
		}
		weighted += *score * (section.Weight / 100)
		weightUsed += section.Weight
	}
	if weightUsed <= 0 {
		return nil
	}
	return ptr(clampFloat(weighted/weightUsed*100, 0, 100))
}

// StudentHasAnyScore reports whether anything was entered for the student,
// telling "ungraded" apart from "graded to 0".
func StudentHasAnyScore(student *models.StudentRecord) bool {
	if student == nil {
		return false
	}
	if finite(student.TotalOverride) {
		return true
	}
	for _, section := range student.Sections {
		if finite(section.OverrideScore) {
			return true
		}
		for _, score := range section.Scores {
			if finite(score) {
				return true
			}
		}
	}
	return false
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func ptr[T any](v T) *T {
	return &v
}
