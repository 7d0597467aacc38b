package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/rubric-grader-api/internal/models"
)

func TestValidateSetupAcceptsBalancedSetup(t *testing.T) {
	setup := setupWith(
		[]models.SectionConfig{section("Homework", 33.333, 2), section("Exam", 66.672, 1)},
		roster("Period 1", "Ana"),
	)
	assert.Empty(t, ValidateSetup(setup))
	assert.True(t, WeightBalanced(setup))
}

func TestValidateSetupReportsEveryProblem(t *testing.T) {
	setup := models.Setup{
		Sections: []models.SectionConfig{
			{Name: " ", Weight: 97, Slots: 0},
			{Name: "Exam", Weight: -3, Slots: 13},
		},
		Classes: []models.ClassConfig{{Name: "Period 1", StudentCount: 61}},
	}

	assert.Equal(t, []string{
		"Section weights must add up to 100%.",
		"Section 1 needs a name.",
		`Section "#1" needs 1 to 12 grade slots.`,
		`Section "Exam" has an invalid weight.`,
		`Section "Exam" needs 1 to 12 grade slots.`,
		"Class 1 needs 1 to 60 students.",
	}, ValidateSetup(setup))
	assert.InDelta(t, 94.0, WeightTotal(setup), 1e-9)
}
