package models

import "time"

// StudentRow is a student's computed final grade inside class metrics.
type StudentRow struct {
	StudentIndex int      `json:"student_index"`
	Name         string   `json:"name"`
	Score        *float64 `json:"score"`
	HasData      bool     `json:"has_data"`
}

// SectionAverage is the class mean of one section.
type SectionAverage struct {
	Name    string   `json:"name"`
	Weight  float64  `json:"weight"`
	Average *float64 `json:"average"`
}

// ClassMetrics summarises one class.
type ClassMetrics struct {
	ClassIndex               int              `json:"class_index"`
	ClassName                string           `json:"class_name"`
	Rows                     []StudentRow     `json:"rows"`
	GradedRows               []StudentRow     `json:"graded_rows"`
	NeedingHelp              []StudentRow     `json:"needing_help"`
	ClassAverage             *float64         `json:"class_average"`
	ClassSize                int              `json:"class_size"`
	GradedCount              int              `json:"graded_count"`
	HelpRatio                float64          `json:"help_ratio"`
	SectionAverages          []SectionAverage `json:"section_averages"`
	AverageOfSectionAverages *float64         `json:"average_of_section_averages"`
}

// HelpEntry is a below-threshold student tagged with the class it belongs to.
type HelpEntry struct {
	ClassIndex   int     `json:"class_index"`
	StudentIndex int     `json:"student_index"`
	ClassName    string  `json:"class_name"`
	StudentName  string  `json:"student_name"`
	Score        float64 `json:"score"`
}

// CohortMetrics aggregates every class of the workspace.
type CohortMetrics struct {
	Classes        []ClassMetrics `json:"classes"`
	ClassCount     int            `json:"class_count"`
	GradedCount    int            `json:"graded_count"`
	NeedingHelp    []HelpEntry    `json:"needing_help"`
	OverallAverage *float64       `json:"overall_average"`
	HelpThreshold  int            `json:"help_threshold"`
}

// SystemMetrics is a lightweight snapshot of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	MutationsTotal           uint64    `json:"mutations_total"`
	SnapshotWrites           uint64    `json:"snapshot_writes"`
	SnapshotWriteFailures    uint64    `json:"snapshot_write_failures"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
