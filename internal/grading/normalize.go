// Package grading holds the pure rubric engines: configuration
// normalisation, scoring, reconciliation of an existing grade tree onto an
// edited setup, and class/cohort aggregation. Nothing in this package
// performs I/O or keeps state between calls.
package grading

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/noah-isme/rubric-grader-api/internal/models"
)

const (
	defaultSlots        = 2
	defaultStudentCount = 5
)

// NormalizeSetup coerces a decoded setup document into a valid Setup. It
// never fails: missing or malformed fields fall back to defaults and numbers
// are clamped to their bounds.
func NormalizeSetup(raw any) models.Setup {
	obj := asObject(raw)
	rawSections := asList(obj["sections"])
	rawClasses := asList(obj["classes"])

	setup := models.Setup{
		SectionCount:    roundIn(obj["sectionCount"], float64(max(len(rawSections), 1)), 1, models.MaxSections),
		ClassCount:      roundIn(obj["classCount"], float64(max(len(rawClasses), 1)), 1, models.MaxClasses),
		HelpThreshold:   roundIn(obj["helpThreshold"], models.DefaultHelpThreshold, 0, 100),
		IncludeComments: obj["includeComments"] != false,
	}

	sections := make([]models.SectionConfig, 0, setup.SectionCount)
	for i := 0; i < setup.SectionCount; i++ {
		if i < len(rawSections) {
			sections = append(sections, NormalizeSection(rawSections[i], i))
			continue
		}
		sections = append(sections, DefaultSection(i))
	}
	classes := make([]models.ClassConfig, 0, setup.ClassCount)
	for i := 0; i < setup.ClassCount; i++ {
		if i < len(rawClasses) {
			classes = append(classes, NormalizeClass(rawClasses[i], i))
			continue
		}
		classes = append(classes, DefaultClass(i))
	}
	setup.Sections = sections
	setup.Classes = classes
	return setup
}

// NormalizeSection coerces one raw section. index is used for fallback names.
func NormalizeSection(raw any, index int) models.SectionConfig {
	obj := asObject(raw)
	slots := roundIn(obj["slots"], defaultSlots, models.MinSlots, models.MaxSlots)
	mode := models.ScoringModeAverage
	if cast.ToString(obj["scoringMode"]) == string(models.ScoringModeHighest) {
		mode = models.ScoringModeHighest
	}
	return models.SectionConfig{
		Name:            textOr(obj["name"], fmt.Sprintf("Section %d", index+1)),
		Weight:          clampFloat(numberOr(obj["weight"], 0), 0, 100),
		Slots:           slots,
		ScoringMode:     mode,
		AllowDeductions: truthy(obj["allowDeductions"]),
		ItemNames:       resizeItemNames(asList(obj["itemNames"]), slots),
	}
}

// NormalizeClass coerces one raw class config.
func NormalizeClass(raw any, index int) models.ClassConfig {
	obj := asObject(raw)
	return models.ClassConfig{
		Name:             textOr(obj["name"], fmt.Sprintf("Class %d", index+1)),
		StudentCount:     roundIn(obj["studentCount"], defaultStudentCount, models.MinStudents, models.MaxStudents),
		StudentNamesText: cast.ToString(obj["studentNamesText"]),
	}
}

// DefaultSection returns the section a fresh setup starts with at index.
func DefaultSection(index int) models.SectionConfig {
	weight := 0.0
	if index == 0 {
		weight = 100
	}
	return models.SectionConfig{
		Name:        fmt.Sprintf("Section %d", index+1),
		Weight:      weight,
		Slots:       defaultSlots,
		ScoringMode: models.ScoringModeAverage,
		ItemNames:   resizeItemNames(nil, defaultSlots),
	}
}

// DefaultClass returns the class a fresh setup starts with at index.
func DefaultClass(index int) models.ClassConfig {
	return models.ClassConfig{Name: fmt.Sprintf("Class %d", index+1), StudentCount: defaultStudentCount}
}

// ParseStudentNames returns exactly StudentCount roster names: entered names
// first, then generated "Student n" fillers.
func ParseStudentNames(class models.ClassConfig) []string {
	entered := make([]string, 0)
	for _, line := range strings.Split(class.StudentNamesText, "\n") {
		if name := singleLine(line); name != "" {
			entered = append(entered, name)
		}
	}
	count := clampInt(class.StudentCount, models.MinStudents, models.MaxStudents)
	names := make([]string, count)
	for i := range names {
		if i < len(entered) {
			names[i] = entered[i]
			continue
		}
		names[i] = fmt.Sprintf("Student %d", i+1)
	}
	return names
}

// SetupFromGrading derives the setup that describes an existing grade tree.
func SetupFromGrading(state *models.GradingState) models.Setup {
	setup := models.Setup{
		SectionCount:    len(state.Sections),
		ClassCount:      len(state.Classes),
		HelpThreshold:   clampInt(state.HelpThreshold, 0, 100),
		IncludeComments: state.IncludeComments,
		Sections:        make([]models.SectionConfig, len(state.Sections)),
		Classes:         make([]models.ClassConfig, len(state.Classes)),
	}
	for i, section := range state.Sections {
		setup.Sections[i] = section.Clone()
	}
	for i, class := range state.Classes {
		names := make([]string, len(class.Students))
		for j, student := range class.Students {
			names[j] = nameOr(student.Name, fmt.Sprintf("Student %d", j+1))
		}
		setup.Classes[i] = models.ClassConfig{
			Name:             nameOr(class.Name, fmt.Sprintf("Class %d", i+1)),
			StudentCount:     max(1, len(class.Students)),
			StudentNamesText: strings.Join(names, "\n"),
		}
	}
	return setup
}

// NormalizeGrading rebuilds a grade tree from a decoded snapshot. It returns
// nil when raw is not an object. Sections come from the tree itself and fall
// back to the setup's sections for legacy documents.
func NormalizeGrading(raw any, setup models.Setup) *models.GradingState {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	var sections []models.SectionConfig
	if rawSections := asList(obj["sections"]); len(rawSections) > 0 {
		sections = make([]models.SectionConfig, len(rawSections))
		for i, rawSection := range rawSections {
			sections[i] = NormalizeSection(rawSection, i)
		}
	} else {
		sections = make([]models.SectionConfig, len(setup.Sections))
		for i, section := range setup.Sections {
			sections[i] = section.Clone()
		}
	}

	includeComments := setup.IncludeComments
	if value, ok := obj["includeComments"].(bool); ok {
		includeComments = value
	}

	rawClasses := asList(obj["classes"])
	state := &models.GradingState{
		Sections:            sections,
		IncludeComments:     includeComments,
		HelpThreshold:       roundIn(obj["helpThreshold"], float64(setup.HelpThreshold), 0, 100),
		OverallProgressNote: cast.ToString(obj["overallProgressNote"]),
		Classes:             make([]models.ClassRecord, len(rawClasses)),
	}

	for classIndex, rawClass := range rawClasses {
		classObj := asObject(rawClass)
		rawStudents := asList(classObj["students"])
		students := make([]models.StudentRecord, len(rawStudents))
		for studentIndex, rawStudent := range rawStudents {
			studentObj := asObject(rawStudent)
			rawRecords := asList(studentObj["sections"])
			records := make([]models.StudentSectionRecord, len(sections))
			for sectionIndex, section := range sections {
				var rawRecord any
				if sectionIndex < len(rawRecords) {
					rawRecord = rawRecords[sectionIndex]
				}
				records[sectionIndex] = normalizeSectionRecord(rawRecord, section.Slots)
			}
			students[studentIndex] = models.StudentRecord{
				Name:          textOr(studentObj["name"], fmt.Sprintf("Student %d", studentIndex+1)),
				TotalOverride: ScoreOrNull(studentObj["totalOverride"]),
				Sections:      records,
			}
		}

		rawOrder := asList(classObj["sectionOrder"])
		if len(rawOrder) == 0 && len(rawStudents) > 0 {
			rawOrder = asList(asObject(rawStudents[0])["sectionOrder"])
		}
		order := make([]int, 0, len(rawOrder))
		for _, value := range rawOrder {
			if index, ok := asIndex(value); ok {
				order = append(order, index)
			}
		}

		state.Classes[classIndex] = models.ClassRecord{
			Name:                 textOr(classObj["name"], fmt.Sprintf("Class %d", classIndex+1)),
			ClassSupportNote:     cast.ToString(classObj["classSupportNote"]),
			SectionOrder:         NormalizeSectionOrder(order, len(sections)),
			SelectedStudentIndex: indexInRange(classObj["selectedStudentIndex"], len(students)),
			Students:             students,
		}
	}
	state.ActiveClassIndex = indexInRange(obj["activeClassIndex"], len(state.Classes))
	return state
}

// NormalizeSectionOrder returns a permutation of 0..sectionCount-1: valid
// entries of order first (duplicates dropped), then every missing index.
func NormalizeSectionOrder(order []int, sectionCount int) []int {
	seen := make([]bool, sectionCount)
	out := make([]int, 0, sectionCount)
	for _, index := range order {
		if index < 0 || index >= sectionCount || seen[index] {
			continue
		}
		seen[index] = true
		out = append(out, index)
	}
	for index := 0; index < sectionCount; index++ {
		if !seen[index] {
			out = append(out, index)
		}
	}
	return out
}

// ScoreOrNull coerces a raw score: blank, missing or non-numeric values are
// "not entered" and everything else is clamped to [0,100].
func ScoreOrNull(raw any) *float64 {
	if raw == nil {
		return nil
	}
	if text, ok := raw.(string); ok && strings.TrimSpace(text) == "" {
		return nil
	}
	value, ok := toNumber(raw)
	if !ok {
		return nil
	}
	value = clampFloat(value, 0, 100)
	return &value
}

// DeductionOrZero coerces a raw deduction to an integer in [0,100].
func DeductionOrZero(raw any) int {
	value, ok := toNumber(raw)
	if !ok {
		return 0
	}
	return clampInt(int(math.Round(value)), 0, 100)
}

// NormalizeKey is the identity key used for name matching.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func normalizeSectionRecord(raw any, slots int) models.StudentSectionRecord {
	obj := asObject(raw)
	rawScores := asList(obj["scores"])
	rawDeductions := asList(obj["deductions"])
	record := models.StudentSectionRecord{
		Scores:        make([]*float64, slots),
		Deductions:    make([]int, slots),
		OverrideScore: ScoreOrNull(obj["overrideScore"]),
		Comment:       cast.ToString(obj["comment"]),
	}
	for i := 0; i < slots; i++ {
		if i < len(rawScores) {
			record.Scores[i] = ScoreOrNull(rawScores[i])
		}
		if i < len(rawDeductions) {
			record.Deductions[i] = DeductionOrZero(rawDeductions[i])
		}
	}
	return record
}

func resizeItemNames(raw []any, slots int) []string {
	names := make([]string, slots)
	for i := range names {
		fallback := fmt.Sprintf("Item %d", i+1)
		if i < len(raw) {
			names[i] = textOr(raw[i], fallback)
			continue
		}
		names[i] = fallback
	}
	return names
}

func asObject(raw any) map[string]any {
	if obj, ok := raw.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

func asList(raw any) []any {
	switch list := raw.(type) {
	case []any:
		return list
	case []map[string]any:
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = item
		}
		return out
	}
	return nil
}

// toNumber mirrors loose numeric coercion: bools count as 0/1, numeric
// strings parse, everything else is rejected. NaN and infinities are rejected.
func toNumber(raw any) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	if text, ok := raw.(string); ok {
		raw = strings.TrimSpace(text)
		if raw == "" {
			return 0, true
		}
	}
	value, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

func numberOr(raw any, fallback float64) float64 {
	if value, ok := toNumber(raw); ok {
		return value
	}
	return fallback
}

// roundIn rounds raw within [lo, hi]. The clamp happens on the float value.
func roundIn(raw any, fallback float64, lo, hi int) int {
	return int(math.Round(clampFloat(numberOr(raw, fallback), float64(lo), float64(hi))))
}

func truthy(raw any) bool {
	switch value := raw.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	}
	if number, ok := toNumber(raw); ok {
		return number != 0
	}
	return true
}

// textOr stringifies raw, trims it and falls back when the result is blank.
func textOr(raw any, fallback string) string {
	if raw == nil {
		return fallback
	}
	return nameOr(cast.ToString(raw), fallback)
}

func nameOr(name, fallback string) string {
	if trimmed := singleLine(name); trimmed != "" {
		return trimmed
	}
	return fallback
}

// singleLine trims name and collapses inner runs of whitespace, line breaks
// included, to one space.
func singleLine(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func asIndex(raw any) (int, bool) {
	switch value := raw.(type) {
	case bool:
		return 0, false
	case string:
		if strings.TrimSpace(value) == "" {
			return 0, false
		}
	}
	value, ok := toNumber(raw)
	if !ok || value != math.Trunc(value) {
		return 0, false
	}
	return int(value), true
}

func indexInRange(raw any, length int) *int {
	if raw == nil {
		return nil
	}
	index, ok := asIndex(raw)
	if !ok || index < 0 || index >= length {
		return nil
	}
	return &index
}

func clampInt(value, lo, hi int) int {
	return min(hi, max(lo, value))
}

func clampFloat(value, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, value))
}
