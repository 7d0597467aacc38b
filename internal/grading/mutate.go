package grading

import (
	"fmt"

	"github.com/noah-isme/rubric-grader-api/internal/models"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
)

const nameSearchLimit = 999

var (
	errClassNotFound   = appErrors.Clone(appErrors.ErrNotFound, "class not found")
	errStudentNotFound = appErrors.Clone(appErrors.ErrNotFound, "student not found")
	errSectionNotFound = appErrors.Clone(appErrors.ErrNotFound, "section not found")
	errSlotNotFound    = appErrors.Clone(appErrors.ErrNotFound, "grade slot not found")
)

// RemovedSlot describes the outcome of RemoveSlot.
type RemovedSlot struct {
	Slots       int
	DroppedData bool
}

// AddSlot appends one scoring slot to section, extending every student record.
func AddSlot(state *models.GradingState, sectionIndex int) error {
	section := state.Section(sectionIndex)
	if section == nil {
		return errSectionNotFound
	}
	if section.Slots >= models.MaxSlots {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a section holds at most %d items", models.MaxSlots))
	}
	section.Slots++
	section.ItemNames = append(section.ItemNames, fmt.Sprintf("Item %d", section.Slots))

	forEachSectionRecord(state, sectionIndex, func(record *models.StudentSectionRecord) {
		record.Scores = append(record.Scores, nil)
		record.Deductions = append(record.Deductions, 0)
	})
	return nil
}

// RemoveSlot drops the last scoring slot of section from every student.
func RemoveSlot(state *models.GradingState, sectionIndex int) (RemovedSlot, error) {
	section := state.Section(sectionIndex)
	if section == nil {
		return RemovedSlot{}, errSectionNotFound
	}
	if section.Slots <= models.MinSlots {
		return RemovedSlot{}, appErrors.Clone(appErrors.ErrConflict, "each section needs at least 1 item")
	}

	last := section.Slots - 1
	dropped := false
	forEachSectionRecord(state, sectionIndex, func(record *models.StudentSectionRecord) {
		if last < len(record.Scores) && finite(record.Scores[last]) {
			dropped = true
		}
		if last < len(record.Deductions) && record.Deductions[last] != 0 {
			dropped = true
		}
		record.Scores = record.Scores[:min(last, len(record.Scores))]
		record.Deductions = record.Deductions[:min(last, len(record.Deductions))]
	})

	section.Slots = last
	section.ItemNames = section.ItemNames[:min(last, len(section.ItemNames))]
	return RemovedSlot{Slots: last, DroppedData: dropped}, nil
}

// AddStudent appends a blank student with the next free generated name and
// selects it. It returns the new student's index.
func AddStudent(state *models.GradingState, classIndex int) (int, error) {
	class := state.Class(classIndex)
	if class == nil {
		return 0, errClassNotFound
	}
	if len(class.Students) >= models.MaxStudents {
		return 0, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a class holds at most %d students", models.MaxStudents))
	}
	names := make([]string, len(class.Students))
	for i, student := range class.Students {
		names[i] = student.Name
	}
	class.Students = append(class.Students, BlankStudent(state.Sections, nextFreeName("Student", names)))
	index := len(class.Students) - 1
	class.SelectedStudentIndex = ptr(index)
	return index, nil
}

// RemoveStudent deletes a student. The last student of a class can not be
// removed. The selection moves to the nearest remaining student.
func RemoveStudent(state *models.GradingState, classIndex, studentIndex int) error {
	class := state.Class(classIndex)
	if class == nil {
		return errClassNotFound
	}
	if studentIndex < 0 || studentIndex >= len(class.Students) {
		return errStudentNotFound
	}
	if len(class.Students) <= models.MinStudents {
		return appErrors.Clone(appErrors.ErrConflict, "at least one student is required in a class")
	}

	class.Students = append(class.Students[:studentIndex], class.Students[studentIndex+1:]...)
	if selected := class.SelectedStudentIndex; selected != nil {
		switch {
		case *selected > studentIndex:
			class.SelectedStudentIndex = ptr(*selected - 1)
		case *selected == studentIndex:
			class.SelectedStudentIndex = ptr(min(studentIndex, len(class.Students)-1))
		}
	}
	return nil
}

// AddClass appends a class with one blank student and makes it active. It
// returns the new class's index.
func AddClass(state *models.GradingState) (int, error) {
	if len(state.Classes) >= models.MaxClasses {
		return 0, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("at most %d classes are supported", models.MaxClasses))
	}
	names := make([]string, len(state.Classes))
	for i, class := range state.Classes {
		names[i] = class.Name
	}
	state.Classes = append(state.Classes, models.ClassRecord{
		Name:         nextFreeName("Class", names),
		SectionOrder: NormalizeSectionOrder(nil, len(state.Sections)),
		Students:     []models.StudentRecord{BlankStudent(state.Sections, "Student 1")},
	})
	index := len(state.Classes) - 1
	state.ActiveClassIndex = ptr(index)
	return index, nil
}

// RemoveClass deletes a class and all of its grades. The last class can not
// be removed. The active class index follows the class it pointed at.
func RemoveClass(state *models.GradingState, classIndex int) error {
	if state.Class(classIndex) == nil {
		return errClassNotFound
	}
	if len(state.Classes) <= 1 {
		return appErrors.Clone(appErrors.ErrConflict, "at least one class is required")
	}

	state.Classes = append(state.Classes[:classIndex], state.Classes[classIndex+1:]...)
	active := state.ActiveClassIndex
	switch {
	case active == nil:
		state.ActiveClassIndex = ptr(0)
	case *active > classIndex:
		state.ActiveClassIndex = ptr(*active - 1)
	case *active == classIndex:
		state.ActiveClassIndex = ptr(min(classIndex, len(state.Classes)-1))
	}
	return nil
}

// MoveSection moves section index from to the display position currently
// held by section index to. Scoring is unaffected. It reports whether the
// order changed.
func MoveSection(state *models.GradingState, classIndex, from, to int) (bool, error) {
	class := state.Class(classIndex)
	if class == nil {
		return false, errClassNotFound
	}
	order := NormalizeSectionOrder(class.SectionOrder, len(state.Sections))
	fromPos, toPos := indexOf(order, from), indexOf(order, to)
	if fromPos < 0 || toPos < 0 {
		return false, errSectionNotFound
	}
	if fromPos == toPos {
		class.SectionOrder = order
		return false, nil
	}
	moved := order[fromPos]
	order = append(order[:fromPos], order[fromPos+1:]...)
	order = append(order[:toPos], append([]int{moved}, order[toPos:]...)...)
	class.SectionOrder = order
	return true, nil
}

// SetSectionOrder replaces a class's display order. Invalid and duplicate
// entries are dropped and missing sections appended.
func SetSectionOrder(state *models.GradingState, classIndex int, order []int) error {
	class := state.Class(classIndex)
	if class == nil {
		return errClassNotFound
	}
	class.SectionOrder = NormalizeSectionOrder(order, len(state.Sections))
	return nil
}

// ClearEnteredData resets every score, deduction, override, comment and note
// while keeping sections, classes and students.
func ClearEnteredData(state *models.GradingState) {
	state.OverallProgressNote = ""
	for ci := range state.Classes {
		class := &state.Classes[ci]
		class.ClassSupportNote = ""
		for si := range class.Students {
			student := &class.Students[si]
			student.TotalOverride = nil
			for ri := range student.Sections {
				record := &student.Sections[ri]
				record.OverrideScore = nil
				record.Comment = ""
				for i := range record.Scores {
					record.Scores[i] = nil
				}
				for i := range record.Deductions {
					record.Deductions[i] = 0
				}
			}
		}
	}
}

// SetScore stores a slot score; nil clears it.
func SetScore(state *models.GradingState, classIndex, studentIndex, sectionIndex, slot int, score *float64) error {
	record, err := slotRecord(state, classIndex, studentIndex, sectionIndex, slot)
	if err != nil {
		return err
	}
	record.Scores[slot] = clampedScore(score)
	return nil
}

// SetDeduction stores a slot deduction clamped to [0,100].
func SetDeduction(state *models.GradingState, classIndex, studentIndex, sectionIndex, slot, deduction int) error {
	record, err := slotRecord(state, classIndex, studentIndex, sectionIndex, slot)
	if err != nil {
		return err
	}
	record.Deductions[slot] = clampInt(deduction, 0, 100)
	return nil
}

// SetSectionOverride stores a manual section score; nil clears it.
func SetSectionOverride(state *models.GradingState, classIndex, studentIndex, sectionIndex int, score *float64) error {
	record, err := sectionRecord(state, classIndex, studentIndex, sectionIndex)
	if err != nil {
		return err
	}
	record.OverrideScore = clampedScore(score)
	return nil
}

// SetSectionComment stores the comment a student received for a section.
func SetSectionComment(state *models.GradingState, classIndex, studentIndex, sectionIndex int, comment string) error {
	record, err := sectionRecord(state, classIndex, studentIndex, sectionIndex)
	if err != nil {
		return err
	}
	record.Comment = comment
	return nil
}

// SetTotalOverride stores a manual final grade; nil clears it.
func SetTotalOverride(state *models.GradingState, classIndex, studentIndex int, score *float64) error {
	student := state.Student(classIndex, studentIndex)
	if student == nil {
		return studentLookupError(state, classIndex)
	}
	student.TotalOverride = clampedScore(score)
	return nil
}

// SelectStudent changes a class's selected student; nil clears the selection.
func SelectStudent(state *models.GradingState, classIndex int, studentIndex *int) error {
	class := state.Class(classIndex)
	if class == nil {
		return errClassNotFound
	}
	if studentIndex != nil && (*studentIndex < 0 || *studentIndex >= len(class.Students)) {
		return errStudentNotFound
	}
	class.SelectedStudentIndex = cloneIndex(studentIndex)
	return nil
}

// SelectClass changes the active class; nil clears it.
func SelectClass(state *models.GradingState, classIndex *int) error {
	if classIndex != nil && state.Class(*classIndex) == nil {
		return errClassNotFound
	}
	state.ActiveClassIndex = cloneIndex(classIndex)
	return nil
}

// RenameClass renames a class. Blank names are ignored and reported as false.
func RenameClass(state *models.GradingState, classIndex int, name string) (bool, error) {
	class := state.Class(classIndex)
	if class == nil {
		return false, errClassNotFound
	}
	return rename(&class.Name, name), nil
}

// RenameStudent renames a student. Blank names are ignored.
func RenameStudent(state *models.GradingState, classIndex, studentIndex int, name string) (bool, error) {
	student := state.Student(classIndex, studentIndex)
	if student == nil {
		return false, studentLookupError(state, classIndex)
	}
	return rename(&student.Name, name), nil
}

// RenameSection renames a section. Blank names are ignored.
func RenameSection(state *models.GradingState, sectionIndex int, name string) (bool, error) {
	section := state.Section(sectionIndex)
	if section == nil {
		return false, errSectionNotFound
	}
	return rename(&section.Name, name), nil
}

// RenameItem renames one slot label of a section. Blank names are ignored.
func RenameItem(state *models.GradingState, sectionIndex, slot int, name string) (bool, error) {
	section := state.Section(sectionIndex)
	if section == nil {
		return false, errSectionNotFound
	}
	if slot < 0 || slot >= len(section.ItemNames) {
		return false, errSlotNotFound
	}
	return rename(&section.ItemNames[slot], name), nil
}

// SetClassNote stores a class support note.
func SetClassNote(state *models.GradingState, classIndex int, note string) error {
	class := state.Class(classIndex)
	if class == nil {
		return errClassNotFound
	}
	class.ClassSupportNote = note
	return nil
}

func rename(target *string, name string) bool {
	clean := singleLine(name)
	if clean == "" {
		return false
	}
	*target = clean
	return true
}

func nextFreeName(prefix string, taken []string) string {
	existing := make(map[string]struct{}, len(taken))
	for _, name := range taken {
		existing[NormalizeKey(name)] = struct{}{}
	}
	for i := 1; i <= nameSearchLimit; i++ {
		candidate := fmt.Sprintf("%s %d", prefix, i)
		if _, ok := existing[NormalizeKey(candidate)]; !ok {
			return candidate
		}
	}
	return fmt.Sprintf("%s %d", prefix, len(taken)+1)
}

func forEachSectionRecord(state *models.GradingState, sectionIndex int, fn func(*models.StudentSectionRecord)) {
	for ci := range state.Classes {
		for si := range state.Classes[ci].Students {
			student := &state.Classes[ci].Students[si]
			if sectionIndex < len(student.Sections) {
				fn(&student.Sections[sectionIndex])
			}
		}
	}
}

func sectionRecord(state *models.GradingState, classIndex, studentIndex, sectionIndex int) (*models.StudentSectionRecord, error) {
	student := state.Student(classIndex, studentIndex)
	if student == nil {
		return nil, studentLookupError(state, classIndex)
	}
	if state.Section(sectionIndex) == nil || sectionIndex >= len(student.Sections) {
		return nil, errSectionNotFound
	}
	return &student.Sections[sectionIndex], nil
}

func slotRecord(state *models.GradingState, classIndex, studentIndex, sectionIndex, slot int) (*models.StudentSectionRecord, error) {
	record, err := sectionRecord(state, classIndex, studentIndex, sectionIndex)
	if err != nil {
		return nil, err
	}
	if slot < 0 || slot >= state.Sections[sectionIndex].Slots || slot >= len(record.Scores) || slot >= len(record.Deductions) {
		return nil, errSlotNotFound
	}
	return record, nil
}

func studentLookupError(state *models.GradingState, classIndex int) error {
	if state.Class(classIndex) == nil {
		return errClassNotFound
	}
	return errStudentNotFound
}

func indexOf(values []int, target int) int {
	for i, value := range values {
		if value == target {
			return i
		}
	}
	return -1
}

func cloneIndex(v *int) *int {
	if v == nil {
		return nil
	}
	return ptr(*v)
}
