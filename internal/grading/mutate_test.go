package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rubric-grader-api/internal/models"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
)

func mutableState() *models.GradingState {
	return Build(setupWith(
		[]models.SectionConfig{section("Homework", 40, 2), section("Exam", 60, 1)},
		roster("Period 1", "Ana", "Ben"),
		roster("Period 2", "Cara"),
	))
}

func TestAddSlotExtendsEveryRecord(t *testing.T) {
	state := mutableState()
	require.NoError(t, AddSlot(state, 1))

	assert.Equal(t, 2, state.Sections[1].Slots)
	assert.Equal(t, []string{"Item 1", "Item 2"}, state.Sections[1].ItemNames)
	for _, class := range state.Classes {
		for _, student := range class.Students {
			assert.Len(t, student.Sections[1].Scores, 2)
			assert.Len(t, student.Sections[1].Deductions, 2)
		}
	}

	for state.Sections[1].Slots < models.MaxSlots {
		require.NoError(t, AddSlot(state, 1))
	}
	assert.ErrorIs(t, AddSlot(state, 1), appErrors.ErrConflict)
	assert.ErrorIs(t, AddSlot(state, 5), appErrors.ErrNotFound)
}

func TestRemoveSlotReportsDroppedData(t *testing.T) {
	state := mutableState()

	removed, err := RemoveSlot(state, 0)
	require.NoError(t, err)
	assert.False(t, removed.DroppedData)
	assert.Equal(t, 1, removed.Slots)

	require.NoError(t, AddSlot(state, 0))
	require.NoError(t, SetScore(state, 1, 0, 0, 1, score(75)))
	removed, err = RemoveSlot(state, 0)
	require.NoError(t, err)
	assert.True(t, removed.DroppedData)
	assert.Equal(t, []*float64{nil}, state.Classes[1].Students[0].Sections[0].Scores)
	assert.Equal(t, []string{"Item 1"}, state.Sections[0].ItemNames)

	_, err = RemoveSlot(state, 0)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestAddStudentPicksNextFreeName(t *testing.T) {
	state := mutableState()
	_, err := RenameStudent(state, 0, 0, "student 1")
	require.NoError(t, err)
	_, err = RenameStudent(state, 0, 1, "Student 3")
	require.NoError(t, err)

	index, err := AddStudent(state, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, index)
	assert.Equal(t, "Student 2", state.Classes[0].Students[2].Name)
	assert.Len(t, state.Classes[0].Students[2].Sections, 2)
	require.NotNil(t, state.Classes[0].SelectedStudentIndex)
	assert.Equal(t, 2, *state.Classes[0].SelectedStudentIndex)
}

func TestRemoveStudentClampsSelection(t *testing.T) {
	state := mutableState()
	require.NoError(t, SelectStudent(state, 0, ptr(1)))

	require.NoError(t, RemoveStudent(state, 0, 1))
	assert.Len(t, state.Classes[0].Students, 1)
	assert.Equal(t, 0, *state.Classes[0].SelectedStudentIndex)

	assert.ErrorIs(t, RemoveStudent(state, 0, 0), appErrors.ErrConflict)
	assert.ErrorIs(t, RemoveStudent(state, 0, 3), appErrors.ErrNotFound)
}

func TestAddAndRemoveClassTrackActiveIndex(t *testing.T) {
	state := mutableState()

	index, err := AddClass(state)
	require.NoError(t, err)
	assert.Equal(t, 2, index)
	assert.Equal(t, "Class 1", state.Classes[2].Name)
	assert.Equal(t, []int{0, 1}, state.Classes[2].SectionOrder)
	require.Len(t, state.Classes[2].Students, 1)
	assert.Equal(t, 2, *state.ActiveClassIndex)

	require.NoError(t, RemoveClass(state, 0))
	assert.Equal(t, 1, *state.ActiveClassIndex)

	require.NoError(t, RemoveClass(state, 1))
	assert.Equal(t, 0, *state.ActiveClassIndex)

	assert.ErrorIs(t, RemoveClass(state, 0), appErrors.ErrConflict)
}

func TestMoveSectionReordersDisplayOnly(t *testing.T) {
	state := Build(setupWith(
		[]models.SectionConfig{section("A", 30, 1), section("B", 30, 1), section("C", 40, 1)},
		roster("Period 1", "Ana"),
	))
	require.NoError(t, SetScore(state, 0, 0, 2, 0, score(90)))
	before := StudentFinalScore(state, &state.Classes[0].Students[0])

	changed, err := MoveSection(state, 0, 2, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{2, 0, 1}, state.Classes[0].SectionOrder)
	assert.Equal(t, before, StudentFinalScore(state, &state.Classes[0].Students[0]))

	changed, err = MoveSection(state, 0, 1, 1)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = MoveSection(state, 0, 1, 9)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestClearEnteredDataKeepsStructure(t *testing.T) {
	state := mutableState()
	require.NoError(t, SetScore(state, 0, 0, 0, 0, score(50)))
	require.NoError(t, SetDeduction(state, 0, 0, 0, 1, 3))
	require.NoError(t, SetSectionOverride(state, 0, 1, 1, score(20)))
	require.NoError(t, SetSectionComment(state, 1, 0, 0, "note"))
	require.NoError(t, SetTotalOverride(state, 1, 0, score(99)))
	require.NoError(t, SetClassNote(state, 0, "class note"))
	state.OverallProgressNote = "overall"

	ClearEnteredData(state)

	assert.Equal(t, mutableState(), state)
}

func TestEntryMutationsValidateIndices(t *testing.T) {
	state := mutableState()

	assert.ErrorIs(t, SetScore(state, 0, 0, 0, 2, score(1)), appErrors.ErrNotFound)
	assert.ErrorIs(t, SetScore(state, 4, 0, 0, 0, score(1)), appErrors.ErrNotFound)
	assert.ErrorIs(t, SetTotalOverride(state, 0, 9, nil), appErrors.ErrNotFound)
	assert.ErrorIs(t, SelectStudent(state, 1, ptr(1)), appErrors.ErrNotFound)
	assert.ErrorIs(t, SelectClass(state, ptr(2)), appErrors.ErrNotFound)

	require.NoError(t, SetScore(state, 0, 0, 0, 1, score(130)))
	assert.Equal(t, 100.0, *state.Classes[0].Students[0].Sections[0].Scores[1])
	require.NoError(t, SetDeduction(state, 0, 0, 0, 1, -7))
	assert.Equal(t, 0, state.Classes[0].Students[0].Sections[0].Deductions[1])
	require.NoError(t, SetScore(state, 0, 0, 0, 1, nil))
	assert.Nil(t, state.Classes[0].Students[0].Sections[0].Scores[1])
}

func TestRenamesIgnoreBlankNames(t *testing.T) {
	state := mutableState()

	renamed, err := RenameClass(state, 0, "   ")
	require.NoError(t, err)
	assert.False(t, renamed)
	assert.Equal(t, "Period 1", state.Classes[0].Name)

	renamed, err = RenameSection(state, 1, "  Final exam ")
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.Equal(t, "Final exam", state.Sections[1].Name)

	renamed, err = RenameItem(state, 0, 1, "Essay")
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.Equal(t, "Essay", state.Sections[0].ItemNames[1])

	_, err = RenameItem(state, 0, 5, "Essay")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestRenameStudentKeepsNamesOnOneLine(t *testing.T) {
	state := Build(setupWith(
		[]models.SectionConfig{section("Exam", 100, 1)},
		roster("Period 1", "Ana", "Ben", "Cara"),
	))
	require.NoError(t, SetScore(state, 0, 2, 0, 0, score(90)))

	renamed, err := RenameStudent(state, 0, 0, " Ana\nBen\r\n  Lee ")
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.Equal(t, "Ana Ben Lee", state.Classes[0].Students[0].Name)

	result := Reconcile(state, SetupFromGrading(state))
	assert.Equal(t, state, result)
	assert.Equal(t, "Cara", result.Classes[0].Students[2].Name)
	assert.Equal(t, 90.0, *result.Classes[0].Students[2].Sections[0].Scores[0])

	renamed, err = RenameClass(state, 0, "Period\n1")
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.Equal(t, "Period 1", state.Classes[0].Name)
}

func TestAddStudentStopsAtRosterLimit(t *testing.T) {
	state := mutableState()
	for len(state.Classes[0].Students) < models.MaxStudents {
		_, err := AddStudent(state, 0)
		require.NoError(t, err)
	}

	_, err := AddStudent(state, 0)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Len(t, state.Classes[0].Students, models.MaxStudents)
	assert.Empty(t, ValidateSetup(SetupFromGrading(state)))
}
