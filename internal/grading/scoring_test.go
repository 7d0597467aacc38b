package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rubric-grader-api/internal/models"
)

func score(v float64) *float64 { return &v }

func section(name string, weight float64, slots int) models.SectionConfig {
	return sanitizeSection(models.SectionConfig{Name: name, Weight: weight, Slots: slots}, 0)
}

func record(scores ...*float64) models.StudentSectionRecord {
	return models.StudentSectionRecord{Scores: scores, Deductions: make([]int, len(scores))}
}

func homeworkExamState() *models.GradingState {
	return &models.GradingState{
		Sections:      []models.SectionConfig{section("Homework", 40, 2), section("Exam", 60, 1)},
		HelpThreshold: 70,
	}
}

func TestSectionScoreAverageSkipsEmptySlots(t *testing.T) {
	result := SectionScore(section("Homework", 40, 2), record(score(80), nil))
	require.NotNil(t, result)
	assert.Equal(t, 80.0, *result)
}

func TestSectionScoreHighestMode(t *testing.T) {
	cfg := section("Quizzes", 100, 3)
	cfg.ScoringMode = models.ScoringModeHighest
	result := SectionScore(cfg, record(score(55), score(91), nil))
	require.NotNil(t, result)
	assert.Equal(t, 91.0, *result)
}

func TestSectionScoreDeductions(t *testing.T) {
	cfg := section("Labs", 100, 2)
	rec := record(score(10), score(90))
	rec.Deductions = []int{50, 15}

	result := SectionScore(cfg, rec)
	require.NotNil(t, result)
	assert.Equal(t, 50.0, *result, "deductions are ignored unless the section allows them")

	cfg.AllowDeductions = true
	result = SectionScore(cfg, rec)
	require.NotNil(t, result)
	assert.Equal(t, 37.5, *result, "a deduction larger than the score floors the slot at 0")
}

func TestSectionScoreOverrideWins(t *testing.T) {
	rec := record(score(20), score(30))
	rec.OverrideScore = score(-4)
	result := SectionScore(section("Exam", 100, 2), rec)
	require.NotNil(t, result)
	assert.Equal(t, 0.0, *result)

	rec.OverrideScore = score(math.NaN())
	result = SectionScore(section("Exam", 100, 2), rec)
	require.NotNil(t, result)
	assert.Equal(t, 25.0, *result)
}

func TestSectionScoreUngraded(t *testing.T) {
	assert.Nil(t, SectionScore(section("Exam", 100, 2), record(nil, nil)))
	assert.Nil(t, SectionScore(section("Exam", 100, 2), models.StudentSectionRecord{}))
	assert.Nil(t, SectionScore(section("Exam", 100, 1), record(score(math.Inf(1)))))
}

func TestStudentFinalScoreWeighted(t *testing.T) {
	state := homeworkExamState()
	student := &models.StudentRecord{Sections: []models.StudentSectionRecord{
		record(score(80), nil),
		record(score(70)),
	}}

	result := StudentFinalScore(state, student)
	require.NotNil(t, result)
	assert.InDelta(t, 74.0, *result, 1e-9)
}

func TestStudentFinalScoreSkipsUngradedSections(t *testing.T) {
	state := homeworkExamState()
	student := &models.StudentRecord{Sections: []models.StudentSectionRecord{
		record(score(80), nil),
		record(nil),
	}}

	result := StudentFinalScore(state, student)
	require.NotNil(t, result)
	assert.InDelta(t, 80.0, *result, 1e-9)
}

func TestStudentFinalScoreTotalOverride(t *testing.T) {
	state := homeworkExamState()
	student := &models.StudentRecord{
		TotalOverride: score(55),
		Sections:      []models.StudentSectionRecord{record(score(100), nil), record(score(100))},
	}
	result := StudentFinalScore(state, student)
	require.NotNil(t, result)
	assert.Equal(t, 55.0, *result)

	student.TotalOverride = score(140)
	result = StudentFinalScore(state, student)
	require.NotNil(t, result)
	assert.Equal(t, 100.0, *result)
}

func TestStudentFinalScoreNilCases(t *testing.T) {
	state := homeworkExamState()
	empty := BlankStudent(state.Sections, "Ana")
	assert.Nil(t, StudentFinalScore(state, &empty))
	assert.False(t, StudentHasAnyScore(&empty))

	state.Sections[0].Weight = 0
	zeroWeight := BlankStudent(state.Sections, "Ben")
	zeroWeight.Sections[0].Scores[0] = score(90)
	assert.Nil(t, StudentFinalScore(state, &zeroWeight))
	assert.True(t, StudentHasAnyScore(&zeroWeight))

	short := &models.StudentRecord{Sections: []models.StudentSectionRecord{record(score(60), nil)}}
	state.Sections[0].Weight = 40
	result := StudentFinalScore(state, short)
	require.NotNil(t, result)
	assert.InDelta(t, 60.0, *result, 1e-9)
}

func TestStudentHasAnyScore(t *testing.T) {
	sections := homeworkExamState().Sections

	withOverride := BlankStudent(sections, "Ana")
	withOverride.Sections[1].OverrideScore = score(0)
	assert.True(t, StudentHasAnyScore(&withOverride))

	withTotal := BlankStudent(sections, "Ben")
	withTotal.TotalOverride = score(0)
	assert.True(t, StudentHasAnyScore(&withTotal))

	assert.False(t, StudentHasAnyScore(nil))
}
