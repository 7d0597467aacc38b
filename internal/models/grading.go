package models

// ScoringMode controls how slot scores collapse into a section score.
type ScoringMode string

const (
	// ScoringModeAverage averages every entered slot.
	ScoringModeAverage ScoringMode = "average"
	// ScoringModeHighest keeps the best entered slot.
	ScoringModeHighest ScoringMode = "highest"
)

const (
	// MinSlots is the lower bound of scoring slots per section.
	MinSlots = 1
	// MaxSlots is the upper bound of scoring slots per section.
	MaxSlots = 12
	// MinStudents is the lower bound of a configured roster.
	MinStudents = 1
	// MaxStudents is the upper bound of a configured roster.
	MaxStudents = 60
	// MaxSections caps the number of configured sections.
	MaxSections = 12
	// MaxClasses caps the number of configured classes.
	MaxClasses = 12
	// DefaultHelpThreshold is used when no threshold was configured.
	DefaultHelpThreshold = 70
)

// SectionConfig describes a weighted rubric category.
type SectionConfig struct {
	Name            string      `json:"name"`
	Weight          float64     `json:"weight"`
	Slots           int         `json:"slots"`
	ScoringMode     ScoringMode `json:"scoringMode"`
	AllowDeductions bool        `json:"allowDeductions"`
	ItemNames       []string    `json:"itemNames"`
}

// ClassConfig describes a class before it is instantiated into records.
type ClassConfig struct {
	Name             string `json:"name"`
	StudentCount     int    `json:"studentCount"`
	StudentNamesText string `json:"studentNamesText"`
}

// Setup is the editable rubric and roster configuration.
type Setup struct {
	SectionCount    int             `json:"sectionCount"`
	ClassCount      int             `json:"classCount"`
	HelpThreshold   int             `json:"helpThreshold"`
	IncludeComments bool            `json:"includeComments"`
	Sections        []SectionConfig `json:"sections"`
	Classes         []ClassConfig   `json:"classes"`
}

// StudentSectionRecord stores one student's entries for one section.
type StudentSectionRecord struct {
	Scores        []*float64 `json:"scores"`
	Deductions    []int      `json:"deductions"`
	OverrideScore *float64   `json:"overrideScore"`
	Comment       string     `json:"comment"`
}

// StudentRecord stores one student's grades across every section.
type StudentRecord struct {
	Name          string                 `json:"name"`
	TotalOverride *float64               `json:"totalOverride"`
	Sections      []StudentSectionRecord `json:"sections"`
}

// ClassRecord is an instantiated class with its roster.
type ClassRecord struct {
	Name                 string          `json:"name"`
	ClassSupportNote     string          `json:"classSupportNote"`
	SectionOrder         []int           `json:"sectionOrder"`
	SelectedStudentIndex *int            `json:"selectedStudentIndex"`
	Students             []StudentRecord `json:"students"`
}

// GradingState is the grade tree. Sections is the index space every
// StudentRecord.Sections slice is aligned to.
type GradingState struct {
	Sections            []SectionConfig `json:"sections"`
	IncludeComments     bool            `json:"includeComments"`
	HelpThreshold       int             `json:"helpThreshold"`
	OverallProgressNote string          `json:"overallProgressNote"`
	ActiveClassIndex    *int            `json:"activeClassIndex"`
	Classes             []ClassRecord   `json:"classes"`
}

// Class returns the class at index or nil when out of range.
func (s *GradingState) Class(index int) *ClassRecord {
	if s == nil || index < 0 || index >= len(s.Classes) {
		return nil
	}
	return &s.Classes[index]
}

// Student returns the student at the given position or nil when out of range.
func (s *GradingState) Student(classIndex, studentIndex int) *StudentRecord {
	class := s.Class(classIndex)
	if class == nil || studentIndex < 0 || studentIndex >= len(class.Students) {
		return nil
	}
	return &class.Students[studentIndex]
}

// Section returns the section config at index or nil when out of range.
func (s *GradingState) Section(index int) *SectionConfig {
	if s == nil || index < 0 || index >= len(s.Sections) {
		return nil
	}
	return &s.Sections[index]
}

// Clone deep-copies the grade tree.
func (s *GradingState) Clone() *GradingState {
	if s == nil {
		return nil
	}
	out := &GradingState{
		Sections:            make([]SectionConfig, len(s.Sections)),
		IncludeComments:     s.IncludeComments,
		HelpThreshold:       s.HelpThreshold,
		OverallProgressNote: s.OverallProgressNote,
		ActiveClassIndex:    cloneInt(s.ActiveClassIndex),
		Classes:             make([]ClassRecord, len(s.Classes)),
	}
	for i, section := range s.Sections {
		out.Sections[i] = section.Clone()
	}
	for i, class := range s.Classes {
		out.Classes[i] = class.Clone()
	}
	return out
}

// Clone deep-copies the section config.
func (c SectionConfig) Clone() SectionConfig {
	c.ItemNames = append([]string(nil), c.ItemNames...)
	if c.ItemNames == nil {
		c.ItemNames = []string{}
	}
	return c
}

// Clone deep-copies the setup.
func (s Setup) Clone() Setup {
	sections := make([]SectionConfig, len(s.Sections))
	for i, section := range s.Sections {
		sections[i] = section.Clone()
	}
	s.Sections = sections
	s.Classes = append(make([]ClassConfig, 0, len(s.Classes)), s.Classes...)
	return s
}

// Clone deep-copies the class record.
func (c ClassRecord) Clone() ClassRecord {
	out := ClassRecord{
		Name:                 c.Name,
		ClassSupportNote:     c.ClassSupportNote,
		SectionOrder:         append(make([]int, 0, len(c.SectionOrder)), c.SectionOrder...),
		SelectedStudentIndex: cloneInt(c.SelectedStudentIndex),
		Students:             make([]StudentRecord, len(c.Students)),
	}
	for i, student := range c.Students {
		out.Students[i] = student.Clone()
	}
	return out
}

// Clone deep-copies the student record.
func (r StudentRecord) Clone() StudentRecord {
	out := StudentRecord{
		Name:          r.Name,
		TotalOverride: cloneFloat(r.TotalOverride),
		Sections:      make([]StudentSectionRecord, len(r.Sections)),
	}
	for i, section := range r.Sections {
		out.Sections[i] = section.Clone()
	}
	return out
}

// Clone deep-copies the section record.
func (r StudentSectionRecord) Clone() StudentSectionRecord {
	out := StudentSectionRecord{
		Scores:        make([]*float64, len(r.Scores)),
		Deductions:    append(make([]int, 0, len(r.Deductions)), r.Deductions...),
		OverrideScore: cloneFloat(r.OverrideScore),
		Comment:       r.Comment,
	}
	for i, score := range r.Scores {
		out.Scores[i] = cloneFloat(score)
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}
