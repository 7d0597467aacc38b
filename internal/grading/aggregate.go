package grading

import "github.com/noah-isme/rubric-grader-api/internal/models"

// ClassMetrics derives the statistics of one class. Ungraded students count
// toward the class size only. A graded student whose final score is
// undefined, because only zero-weight sections were scored, is listed in
// GradedRows but left out of the average and of the help roster. An
// out-of-range index yields empty metrics.
func ClassMetrics(state *models.GradingState, classIndex int) models.ClassMetrics {
	metrics := models.ClassMetrics{
		ClassIndex:  classIndex,
		Rows:        []models.StudentRow{},
		GradedRows:  []models.StudentRow{},
		NeedingHelp: []models.StudentRow{},
	}
	class := state.Class(classIndex)
	if class == nil {
		metrics.SectionAverages = []models.SectionAverage{}
		return metrics
	}
	metrics.ClassName = class.Name
	metrics.ClassSize = len(class.Students)

	scored := make([]float64, 0, len(class.Students))
	for i := range class.Students {
		student := &class.Students[i]
		row := models.StudentRow{
			StudentIndex: i,
			Name:         student.Name,
			Score:        StudentFinalScore(state, student),
			HasData:      StudentHasAnyScore(student),
		}
		metrics.Rows = append(metrics.Rows, row)
		if !row.HasData {
			continue
		}
		metrics.GradedRows = append(metrics.GradedRows, row)
		if row.Score == nil {
			continue
		}
		scored = append(scored, *row.Score)
		if *row.Score < float64(state.HelpThreshold) {
			metrics.NeedingHelp = append(metrics.NeedingHelp, row)
		}
	}

	metrics.GradedCount = len(metrics.GradedRows)
	metrics.ClassAverage = mean(scored)
	if metrics.ClassSize > 0 {
		metrics.HelpRatio = float64(len(metrics.NeedingHelp)) / float64(metrics.ClassSize)
	}

	metrics.SectionAverages = make([]models.SectionAverage, len(state.Sections))
	sectionMeans := make([]float64, 0, len(state.Sections))
	for sectionIndex, section := range state.Sections {
		values := make([]float64, 0, len(class.Students))
		for _, student := range class.Students {
			if sectionIndex >= len(student.Sections) {
				continue
			}
			if score := SectionScore(section, student.Sections[sectionIndex]); score != nil {
				values = append(values, *score)
			}
		}
		average := mean(values)
		metrics.SectionAverages[sectionIndex] = models.SectionAverage{
			Name:    section.Name,
			Weight:  section.Weight,
			Average: average,
		}
		if average != nil {
			sectionMeans = append(sectionMeans, *average)
		}
	}
	metrics.AverageOfSectionAverages = mean(sectionMeans)
	return metrics
}

// CohortMetrics composes ClassMetrics over every class. The overall average
// is taken over all graded students so class sizes weigh in proportionally.
func CohortMetrics(state *models.GradingState) models.CohortMetrics {
	cohort := models.CohortMetrics{
		Classes:     []models.ClassMetrics{},
		NeedingHelp: []models.HelpEntry{},
	}
	if state == nil {
		return cohort
	}
	cohort.ClassCount = len(state.Classes)
	cohort.HelpThreshold = state.HelpThreshold

	scored := make([]float64, 0)
	for classIndex := range state.Classes {
		metrics := ClassMetrics(state, classIndex)
		cohort.Classes = append(cohort.Classes, metrics)
		cohort.GradedCount += metrics.GradedCount
		for _, row := range metrics.GradedRows {
			if row.Score != nil {
				scored = append(scored, *row.Score)
			}
		}
		for _, row := range metrics.NeedingHelp {
			cohort.NeedingHelp = append(cohort.NeedingHelp, models.HelpEntry{
				ClassIndex:   classIndex,
				StudentIndex: row.StudentIndex,
				ClassName:    metrics.ClassName,
				StudentName:  row.Name,
				Score:        *row.Score,
			})
		}
	}
	cohort.OverallAverage = mean(scored)
	return cohort
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return ptr(sum / float64(len(values)))
}
