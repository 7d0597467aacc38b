package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/rubric-grader-api/internal/dto"
	"github.com/noah-isme/rubric-grader-api/internal/grading"
	"github.com/noah-isme/rubric-grader-api/internal/models"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
	"github.com/noah-isme/rubric-grader-api/pkg/export"
	"github.com/noah-isme/rubric-grader-api/pkg/storage"
)

const (
	statusNeedsHelp = "Needs help"
	statusOnTrack   = "On track"
	statusUngraded  = "Ungraded"
	noComment       = "No comment"
	emptyScore      = "--"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

type gradingReader interface {
	Grading() (*models.GradingState, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportFile is a rendered export ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders grade reports from the workspace and stores them
// behind signed download links.
type ExportService struct {
	workspace gradingReader
	storage   fileStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(workspace gradingReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		workspace: workspace,
		storage:   files,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Render builds and renders the requested export.
func (s *ExportService) Render(ctx context.Context, req dto.ExportRequest) (*ExportFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state, err := s.workspace.Grading()
	if err != nil {
		return nil, err
	}

	var (
		dataset  export.Dataset
		title    string
		basename string
	)
	switch req.Kind {
	case dto.ExportKindClassReport:
		dataset, title, err = ClassReport(state, req.ClassIndex)
		basename = safeName(classNameAt(state, req.ClassIndex), "class") + "-class-report"
	case dto.ExportKindStudentSheet:
		studentIndex := 0
		if req.StudentIndex != nil {
			studentIndex = *req.StudentIndex
		}
		dataset, title, err = StudentSheet(state, req.ClassIndex, studentIndex)
		if student := state.Student(req.ClassIndex, studentIndex); student != nil {
			basename = safeName(student.Name, "student") + "-grade-sheet"
		}
	case dto.ExportKindStudentSheets:
		dataset, title, err = StudentSheets(state, req.ClassIndex)
		basename = safeName(classNameAt(state, req.ClassIndex), "class") + "-student-sheets"
	}
	if err != nil {
		return nil, err
	}

	renderer, err := export.RendererFor(export.Format(req.Format))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	payload, err := renderer.Render(dataset, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s.%s", basename, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        payload,
	}, nil
}

// Store renders the export, writes it to storage and returns a signed link.
func (s *ExportService) Store(ctx context.Context, req dto.ExportRequest) (*dto.ExportLinkResponse, error) {
	file, err := s.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	relPath, err := s.storage.Save(fmt.Sprintf("%s/%s", id, file.Filename), file.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("export stored", zap.String("export_id", id), zap.String("kind", req.Kind), zap.String("format", req.Format))
	return &dto.ExportLinkResponse{
		ID:        id,
		Filename:  file.Filename,
		Format:    req.Format,
		URL:       fmt.Sprintf("%s/exports/download/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	link, err := s.signer.Parse(token, false)
	if errors.Is(err, storage.ErrExpiredToken) {
		return nil, "", appErrors.Wrap(err, appErrors.ErrExportLinkExpired.Code, appErrors.ErrExportLinkExpired.Status, appErrors.ErrExportLinkExpired.Message)
	}
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link is invalid")
	}
	relPath := link.Path
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	parts := strings.Split(relPath, "/")
	return file, parts[len(parts)-1], nil
}

// Cleanup removes stored exports older than ttl (defaults to ResultTTL).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ClassReport lists every student of a class with their final grade and
// status, followed by one column per section.
func ClassReport(state *models.GradingState, classIndex int) (export.Dataset, string, error) {
	class := state.Class(classIndex)
	if class == nil {
		return export.Dataset{}, "", classNotFound(classIndex)
	}
	metrics := grading.ClassMetrics(state, classIndex)
	needsHelp := make(map[int]bool, len(metrics.NeedingHelp))
	for _, row := range metrics.NeedingHelp {
		needsHelp[row.StudentIndex] = true
	}

	headers := []string{"Student", "Final Grade", "Has Scores", "Status"}
	for _, section := range state.Sections {
		headers = append(headers, sectionHeader(section))
	}
	if state.IncludeComments {
		headers = append(headers, "Comments")
	}

	rows := make([]map[string]string, 0, len(class.Students))
	for i := range class.Students {
		student := &class.Students[i]
		row := metrics.Rows[i]
		status := statusUngraded
		if row.HasData && row.Score != nil {
			status = statusOnTrack
			if needsHelp[i] {
				status = statusNeedsHelp
			}
		}
		record := map[string]string{
			"Student":     student.Name,
			"Final Grade": percent(row.Score),
			"Has Scores":  yesNo(row.HasData),
			"Status":      status,
		}
		var comments []string
		for sectionIndex, section := range state.Sections {
			var sectionRecord models.StudentSectionRecord
			if sectionIndex < len(student.Sections) {
				sectionRecord = student.Sections[sectionIndex]
			}
			record[sectionHeader(section)] = percent(grading.SectionScore(section, sectionRecord))
			if comment := strings.TrimSpace(sectionRecord.Comment); comment != "" {
				comments = append(comments, fmt.Sprintf("%s: %s", section.Name, comment))
			}
		}
		if state.IncludeComments {
			record["Comments"] = strings.Join(comments, "; ")
		}
		rows = append(rows, record)
	}

	title := fmt.Sprintf("%s - Class Report | Class average %s | Graded %d/%d | Need help %d",
		class.Name, percent(metrics.ClassAverage), metrics.GradedCount, metrics.ClassSize, len(metrics.NeedingHelp))
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

// StudentSheet is one student's section breakdown with comments and the
// final grade as the closing row.
func StudentSheet(state *models.GradingState, classIndex, studentIndex int) (export.Dataset, string, error) {
	student := state.Student(classIndex, studentIndex)
	if student == nil {
		if state.Class(classIndex) == nil {
			return export.Dataset{}, "", classNotFound(classIndex)
		}
		return export.Dataset{}, "", studentNotFound(classIndex, studentIndex)
	}
	metrics := grading.ClassMetrics(state, classIndex)
	headers := []string{"Section", "Items", "Section Score", "Weight", "Comment"}
	rows := sheetRows(state, student)
	title := fmt.Sprintf("%s - Grade Sheet | %s | Class average %s",
		student.Name, state.Classes[classIndex].Name, percent(metrics.ClassAverage))
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

// StudentSheets concatenates the grade sheets of every student in a class.
func StudentSheets(state *models.GradingState, classIndex int) (export.Dataset, string, error) {
	class := state.Class(classIndex)
	if class == nil {
		return export.Dataset{}, "", classNotFound(classIndex)
	}
	metrics := grading.ClassMetrics(state, classIndex)
	headers := []string{"Student", "Section", "Items", "Section Score", "Weight", "Comment"}
	var rows []map[string]string
	for i := range class.Students {
		for _, row := range sheetRows(state, &class.Students[i]) {
			row["Student"] = class.Students[i].Name
			rows = append(rows, row)
		}
	}
	title := fmt.Sprintf("%s - Student Sheets | Class average %s", class.Name, percent(metrics.ClassAverage))
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func sheetRows(state *models.GradingState, student *models.StudentRecord) []map[string]string {
	rows := make([]map[string]string, 0, len(state.Sections)+1)
	for sectionIndex, section := range state.Sections {
		var record models.StudentSectionRecord
		if sectionIndex < len(student.Sections) {
			record = student.Sections[sectionIndex]
		}
		comment := strings.TrimSpace(record.Comment)
		if comment == "" {
			comment = noComment
		}
		rows = append(rows, map[string]string{
			"Section":       section.Name,
			"Items":         itemScores(section, record),
			"Section Score": percent(grading.SectionScore(section, record)),
			"Weight":        fmt.Sprintf("%s%%", trimFloat(section.Weight)),
			"Comment":       comment,
		})
	}
	rows = append(rows, map[string]string{
		"Section":       "Final grade",
		"Section Score": percent(grading.StudentFinalScore(state, student)),
	})
	return rows
}

// itemScores renders each slot as "name: score", with "-deduction" appended
// when the section allows deductions and one was entered.
func itemScores(section models.SectionConfig, record models.StudentSectionRecord) string {
	parts := make([]string, 0, section.Slots)
	for slot := 0; slot < section.Slots; slot++ {
		name := fmt.Sprintf("Item %d", slot+1)
		if slot < len(section.ItemNames) {
			name = section.ItemNames[slot]
		}
		value := emptyScore
		if slot < len(record.Scores) && record.Scores[slot] != nil {
			value = trimFloat(*record.Scores[slot])
			if section.AllowDeductions && slot < len(record.Deductions) && record.Deductions[slot] > 0 {
				value = fmt.Sprintf("%s-%d", value, record.Deductions[slot])
			}
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, value))
	}
	return strings.Join(parts, ", ")
}

func sectionHeader(section models.SectionConfig) string {
	return fmt.Sprintf("%s (%s%%)", section.Name, trimFloat(section.Weight))
}

func classNameAt(state *models.GradingState, classIndex int) string {
	if class := state.Class(classIndex); class != nil {
		return class.Name
	}
	return ""
}

func percent(value *float64) string {
	if value == nil {
		return emptyScore
	}
	return fmt.Sprintf("%.1f%%", *value)
}

func trimFloat(value float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}

func yesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

func safeName(raw, fallback string) string {
	clean := strings.Trim(unsafeFilenameChars.ReplaceAllString(raw, "_"), "_")
	if clean == "" {
		return fallback
	}
	if len(clean) > 80 {
		clean = clean[:80]
	}
	return clean
}
