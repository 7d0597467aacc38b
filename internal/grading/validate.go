package grading

import (
	"fmt"
	"math"
	"strings"

	"github.com/noah-isme/rubric-grader-api/internal/models"
)

// WeightTolerance is how far the section weight total may drift from 100.
const WeightTolerance = 0.01

// WeightTotal sums the weights of every section in setup.
func WeightTotal(setup models.Setup) float64 {
	total := 0.0
	for _, section := range setup.Sections {
		total += section.Weight
	}
	return total
}

// WeightBalanced reports whether the weights add up to 100 within tolerance.
func WeightBalanced(setup models.Setup) bool {
	return math.Abs(WeightTotal(setup)-100) <= WeightTolerance
}

// ValidateSetup returns the human-readable problems that block applying
// setup. An empty result means the setup can be applied. Scoring still works
// on setups that fail validation.
func ValidateSetup(setup models.Setup) []string {
	problems := make([]string, 0)
	if !WeightBalanced(setup) {
		problems = append(problems, "Section weights must add up to 100%.")
	}

	for i, section := range setup.Sections {
		label := section.Name
		if strings.TrimSpace(label) == "" {
			problems = append(problems, fmt.Sprintf("Section %d needs a name.", i+1))
			label = fmt.Sprintf("#%d", i+1)
		}
		if section.Weight < 0 || section.Weight > 100 || math.IsNaN(section.Weight) {
			problems = append(problems, fmt.Sprintf("Section %q has an invalid weight.", label))
		}
		if section.Slots < models.MinSlots || section.Slots > models.MaxSlots {
			problems = append(problems, fmt.Sprintf("Section %q needs %d to %d grade slots.", label, models.MinSlots, models.MaxSlots))
		}
	}

	for i, class := range setup.Classes {
		if class.StudentCount < models.MinStudents || class.StudentCount > models.MaxStudents {
			problems = append(problems, fmt.Sprintf("Class %d needs %d to %d students.", i+1, models.MinStudents, models.MaxStudents))
		}
	}
	return problems
}
