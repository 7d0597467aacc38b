package grading

import (
	"github.com/noah-isme/rubric-grader-api/internal/models"
)

// matcher pairs new entities with old ones: first by identity key among the
// old entities not yet claimed, then by position when that old slot is still
// unclaimed. Duplicate keys resolve to the first unclaimed old entity in
// storage order. No old entity is ever claimed twice.
type matcher struct {
	keys    []string
	claimed []bool
}

func newMatcher(oldNames []string) *matcher {
	keys := make([]string, len(oldNames))
	for i, name := range oldNames {
		keys[i] = NormalizeKey(name)
	}
	return &matcher{keys: keys, claimed: make([]bool, len(oldNames))}
}

// claim returns the old index matched to the new entity at position, or -1.
func (m *matcher) claim(name string, position int) int {
	key := NormalizeKey(name)
	for i, oldKey := range m.keys {
		if !m.claimed[i] && oldKey == key {
			m.claimed[i] = true
			return i
		}
	}
	if position < len(m.keys) && !m.claimed[position] {
		m.claimed[position] = true
		return position
	}
	return -1
}

// Build creates a fresh grade tree for setup with nothing entered.
func Build(setup models.Setup) *models.GradingState {
	sections := normalizedSections(setup)
	state := &models.GradingState{
		Sections:        sections,
		IncludeComments: setup.IncludeComments,
		HelpThreshold:   clampInt(setup.HelpThreshold, 0, 100),
		Classes:         make([]models.ClassRecord, len(setup.Classes)),
	}
	for i, class := range setup.Classes {
		names := ParseStudentNames(class)
		students := make([]models.StudentRecord, len(names))
		for j, name := range names {
			students[j] = BlankStudent(sections, name)
		}
		state.Classes[i] = models.ClassRecord{
			Name:         nameOr(class.Name, NormalizeClass(nil, i).Name),
			SectionOrder: NormalizeSectionOrder(nil, len(sections)),
			Students:     students,
		}
	}
	return state
}

// BlankStudent returns a record with every slot of every section empty.
func BlankStudent(sections []models.SectionConfig, name string) models.StudentRecord {
	records := make([]models.StudentSectionRecord, len(sections))
	for i, section := range sections {
		records[i] = blankSectionRecord(section.Slots)
	}
	return models.StudentRecord{Name: name, Sections: records}
}

// Reconcile remaps an existing grade tree onto an edited setup, keeping as
// much entered data as name or position matching allows. Entities with no
// match start blank; old entities nobody matched are dropped. A nil existing
// tree behaves like Build.
func Reconcile(existing *models.GradingState, setup models.Setup) *models.GradingState {
	if existing == nil {
		return Build(setup)
	}
	sections := normalizedSections(setup)

	sectionNames := make([]string, len(existing.Sections))
	for i, section := range existing.Sections {
		sectionNames[i] = section.Name
	}
	sectionMatcher := newMatcher(sectionNames)
	sectionMatch := make([]int, len(sections))
	oldToNew := make(map[int]int, len(sections))
	for i, section := range sections {
		sectionMatch[i] = sectionMatcher.claim(section.Name, i)
		if sectionMatch[i] >= 0 {
			oldToNew[sectionMatch[i]] = i
		}
	}

	classNames := make([]string, len(existing.Classes))
	for i, class := range existing.Classes {
		classNames[i] = class.Name
	}
	classMatcher := newMatcher(classNames)
	classMatch := make([]int, len(setup.Classes))

	classes := make([]models.ClassRecord, len(setup.Classes))
	for i, classConfig := range setup.Classes {
		name := nameOr(classConfig.Name, NormalizeClass(nil, i).Name)
		classMatch[i] = classMatcher.claim(name, i)
		var old *models.ClassRecord
		if classMatch[i] >= 0 {
			old = &existing.Classes[classMatch[i]]
		}
		classes[i] = reconcileClass(old, name, ParseStudentNames(classConfig), sections, sectionMatch, oldToNew)
	}

	return &models.GradingState{
		Sections:            sections,
		IncludeComments:     setup.IncludeComments,
		HelpThreshold:       clampInt(setup.HelpThreshold, 0, 100),
		OverallProgressNote: existing.OverallProgressNote,
		ActiveClassIndex:    resolveActiveClass(existing, classes, classMatch),
		Classes:             classes,
	}
}

func reconcileClass(old *models.ClassRecord, name string, roster []string, sections []models.SectionConfig, sectionMatch []int, oldToNew map[int]int) models.ClassRecord {
	var oldStudents []models.StudentRecord
	if old != nil {
		oldStudents = old.Students
	}
	oldNames := make([]string, len(oldStudents))
	for i, student := range oldStudents {
		oldNames[i] = student.Name
	}
	studentMatcher := newMatcher(oldNames)
	studentMatch := make([]int, len(roster))

	students := make([]models.StudentRecord, len(roster))
	for i, studentName := range roster {
		studentMatch[i] = studentMatcher.claim(studentName, i)
		if studentMatch[i] < 0 {
			students[i] = BlankStudent(sections, studentName)
			continue
		}
		students[i] = remapStudent(&oldStudents[studentMatch[i]], studentName, sections, sectionMatch)
	}

	record := models.ClassRecord{
		Name:         name,
		SectionOrder: remapSectionOrder(old, oldToNew, len(sections)),
		Students:     students,
	}
	if old != nil {
		record.ClassSupportNote = old.ClassSupportNote
		if selected := old.SelectedStudentIndex; selected != nil && *selected >= 0 && *selected < len(oldStudents) {
			record.SelectedStudentIndex = resolveByName(*selected, oldStudents[*selected].Name, studentMatch, roster)
		}
	}
	return record
}

func remapStudent(old *models.StudentRecord, name string, sections []models.SectionConfig, sectionMatch []int) models.StudentRecord {
	records := make([]models.StudentSectionRecord, len(sections))
	for i, section := range sections {
		oldIndex := sectionMatch[i]
		if oldIndex < 0 || oldIndex >= len(old.Sections) {
			records[i] = blankSectionRecord(section.Slots)
			continue
		}
		records[i] = remapSectionRecord(old.Sections[oldIndex], section.Slots)
	}
	return models.StudentRecord{
		Name:          name,
		TotalOverride: clampedScore(old.TotalOverride),
		Sections:      records,
	}
}

// remapSectionRecord copies slot data up to the smaller of the two slot
// counts; extra new slots start empty and dropped slots are discarded.
func remapSectionRecord(old models.StudentSectionRecord, slots int) models.StudentSectionRecord {
	record := blankSectionRecord(slots)
	for i := 0; i < slots; i++ {
		if i < len(old.Scores) {
			record.Scores[i] = clampedScore(old.Scores[i])
		}
		if i < len(old.Deductions) {
			record.Deductions[i] = clampInt(old.Deductions[i], 0, 100)
		}
	}
	record.OverrideScore = clampedScore(old.OverrideScore)
	record.Comment = old.Comment
	return record
}

func remapSectionOrder(old *models.ClassRecord, oldToNew map[int]int, sectionCount int) []int {
	if old == nil {
		return NormalizeSectionOrder(nil, sectionCount)
	}
	mapped := make([]int, 0, len(old.SectionOrder))
	for _, oldIndex := range old.SectionOrder {
		if newIndex, ok := oldToNew[oldIndex]; ok {
			mapped = append(mapped, newIndex)
		}
	}
	return NormalizeSectionOrder(mapped, sectionCount)
}

// resolveByName finds where the entity previously at oldIndex ended up. The
// matched entity wins when it kept its name, otherwise the first entity with
// the same name. Renamed or removed entities resolve to nil.
func resolveByName(oldIndex int, oldName string, match []int, newNames []string) *int {
	key := NormalizeKey(oldName)
	for i, matched := range match {
		if matched == oldIndex && NormalizeKey(newNames[i]) == key {
			return ptr(i)
		}
	}
	for i, name := range newNames {
		if NormalizeKey(name) == key {
			return ptr(i)
		}
	}
	return nil
}

func resolveActiveClass(existing *models.GradingState, classes []models.ClassRecord, classMatch []int) *int {
	if existing.ActiveClassIndex == nil {
		return nil
	}
	oldIndex := *existing.ActiveClassIndex
	if oldIndex < 0 || oldIndex >= len(existing.Classes) {
		return firstIndex(len(classes))
	}
	names := make([]string, len(classes))
	for i, class := range classes {
		names[i] = class.Name
	}
	if resolved := resolveByName(oldIndex, existing.Classes[oldIndex].Name, classMatch, names); resolved != nil {
		return resolved
	}
	if oldIndex < len(classes) {
		return ptr(oldIndex)
	}
	return firstIndex(len(classes))
}

func firstIndex(length int) *int {
	if length == 0 {
		return nil
	}
	return ptr(0)
}

func normalizedSections(setup models.Setup) []models.SectionConfig {
	sections := make([]models.SectionConfig, len(setup.Sections))
	for i, section := range setup.Sections {
		sections[i] = sanitizeSection(section, i)
	}
	return sections
}

// sanitizeSection re-applies section bounds to an already typed config.
func sanitizeSection(section models.SectionConfig, index int) models.SectionConfig {
	slots := clampInt(section.Slots, models.MinSlots, models.MaxSlots)
	mode := models.ScoringModeAverage
	if section.ScoringMode == models.ScoringModeHighest {
		mode = models.ScoringModeHighest
	}
	raw := make([]any, len(section.ItemNames))
	for i, name := range section.ItemNames {
		raw[i] = name
	}
	return models.SectionConfig{
		Name:            nameOr(section.Name, DefaultSection(index).Name),
		Weight:          clampFloat(section.Weight, 0, 100),
		Slots:           slots,
		ScoringMode:     mode,
		AllowDeductions: section.AllowDeductions,
		ItemNames:       resizeItemNames(raw, slots),
	}
}

func blankSectionRecord(slots int) models.StudentSectionRecord {
	return models.StudentSectionRecord{
		Scores:     make([]*float64, slots),
		Deductions: make([]int, slots),
	}
}

func clampedScore(v *float64) *float64 {
	if !finite(v) {
		return nil
	}
	return ptr(clampFloat(*v, 0, 100))
}
