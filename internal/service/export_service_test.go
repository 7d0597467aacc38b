package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rubric-grader-api/internal/dto"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
	"github.com/noah-isme/rubric-grader-api/pkg/storage"
)

func gradedWorkspace(t *testing.T) *WorkspaceService {
	t.Helper()
	svc, _, _ := appliedWorkspace(t)
	ctx := context.Background()
	_, err := svc.SetSlotEntry(ctx, 0, 0, 0, 0, dto.SlotEntryRequest{Score: floatPtr(80)})
	require.NoError(t, err)
	_, err = svc.SetSlotEntry(ctx, 0, 0, 1, 0, dto.SlotEntryRequest{Score: floatPtr(70)})
	require.NoError(t, err)
	_, err = svc.SetSectionEntry(ctx, 0, 1, 1, dto.SectionEntryRequest{OverrideScore: floatPtr(95), Comment: "great"})
	require.NoError(t, err)
	return svc
}

func newExportServiceForTest(t *testing.T, workspace gradingReader) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewExportService(workspace, files, storage.NewSignedURLSigner("secret", time.Minute), ExportConfig{APIPrefix: "/api/v1"}, nil, nil)
}

func TestClassReportRows(t *testing.T) {
	state, err := gradedWorkspace(t).Grading()
	require.NoError(t, err)

	dataset, title, err := ClassReport(state, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Student", "Final Grade", "Has Scores", "Status", "Homework (40%)", "Exam (60%)"}, dataset.Headers)
	require.Len(t, dataset.Rows, 2)
	assert.Equal(t, map[string]string{
		"Student":        "Ana",
		"Final Grade":    "74.0%",
		"Has Scores":     "Yes",
		"Status":         statusNeedsHelp,
		"Homework (40%)": "80.0%",
		"Exam (60%)":     "70.0%",
	}, dataset.Rows[0])
	assert.Equal(t, statusOnTrack, dataset.Rows[1]["Status"])
	assert.Equal(t, "--", dataset.Rows[1]["Homework (40%)"])
	assert.Contains(t, title, "Class average 84.5%")
	assert.Contains(t, title, "Graded 2/2")

	dataset, _, err = ClassReport(state, 1)
	require.NoError(t, err)
	assert.Equal(t, statusUngraded, dataset.Rows[0]["Status"])
	assert.Equal(t, "No", dataset.Rows[0]["Has Scores"])

	_, _, err = ClassReport(state, 9)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestClassReportIncludesCommentsWhenEnabled(t *testing.T) {
	state, err := gradedWorkspace(t).Grading()
	require.NoError(t, err)
	state.IncludeComments = true

	dataset, _, err := ClassReport(state, 0)
	require.NoError(t, err)
	assert.Equal(t, "Comments", dataset.Headers[len(dataset.Headers)-1])
	assert.Equal(t, "Exam: great", dataset.Rows[1]["Comments"])
	assert.Empty(t, dataset.Rows[0]["Comments"])
}

func TestStudentSheetRows(t *testing.T) {
	state, err := gradedWorkspace(t).Grading()
	require.NoError(t, err)

	dataset, title, err := StudentSheet(state, 0, 1)
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 3)
	assert.Equal(t, "Item 1: --, Item 2: --", dataset.Rows[0]["Items"])
	assert.Equal(t, noComment, dataset.Rows[0]["Comment"])
	assert.Equal(t, "95.0%", dataset.Rows[1]["Section Score"])
	assert.Equal(t, "great", dataset.Rows[1]["Comment"])
	assert.Equal(t, "60%", dataset.Rows[1]["Weight"])
	assert.Equal(t, map[string]string{"Section": "Final grade", "Section Score": "95.0%"}, dataset.Rows[2])
	assert.True(t, strings.HasPrefix(title, "Ben - Grade Sheet | Period 1"))

	_, _, err = StudentSheet(state, 0, 5)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, _, err = StudentSheet(state, 5, 0)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentSheetsCoverWholeClass(t *testing.T) {
	state, err := gradedWorkspace(t).Grading()
	require.NoError(t, err)

	dataset, _, err := StudentSheets(state, 0)
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 6)
	assert.Equal(t, "Ana", dataset.Rows[0]["Student"])
	assert.Equal(t, "Item 1: 80, Item 2: --", dataset.Rows[0]["Items"])
	assert.Equal(t, "Ben", dataset.Rows[5]["Student"])
}

func TestExportRenderCSV(t *testing.T) {
	svc := newExportServiceForTest(t, gradedWorkspace(t))

	file, err := svc.Render(context.Background(), dto.ExportRequest{Kind: dto.ExportKindClassReport, ClassIndex: 0, Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "Period_1-class-report.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Contains(t, string(file.Data), "Ana,74.0%,Yes,Needs help,80.0%,70.0%\n")

	file, err = svc.Render(context.Background(), dto.ExportRequest{Kind: dto.ExportKindStudentSheet, StudentIndex: intPtr(1), Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Ben-grade-sheet.pdf", file.Filename)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestExportRenderRejectsInvalidRequests(t *testing.T) {
	svc := newExportServiceForTest(t, gradedWorkspace(t))
	ctx := context.Background()

	_, err := svc.Render(ctx, dto.ExportRequest{Kind: dto.ExportKindStudentSheet, Format: "csv"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Render(ctx, dto.ExportRequest{Kind: dto.ExportKindClassReport, Format: "xlsx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Render(ctx, dto.ExportRequest{Kind: dto.ExportKindStudentSheets, ClassIndex: 3, Format: "csv"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	empty, _, _ := newWorkspaceForTest(t)
	_, err = newExportServiceForTest(t, empty).Render(ctx, dto.ExportRequest{Kind: dto.ExportKindClassReport, Format: "csv"})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
}

func TestExportStoreAndDownload(t *testing.T) {
	svc := newExportServiceForTest(t, gradedWorkspace(t))

	link, err := svc.Store(context.Background(), dto.ExportRequest{Kind: dto.ExportKindStudentSheets, ClassIndex: 1, Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "Period_2-student-sheets.csv", link.Filename)
	require.True(t, strings.HasPrefix(link.URL, "/api/v1/exports/download/"))

	file, name, err := svc.Download(strings.TrimPrefix(link.URL, "/api/v1/exports/download/"))
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, link.Filename, name)
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Cara,Final grade")

	_, _, err = svc.Download("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	removed, err := svc.Cleanup(time.Nanosecond)
	require.NoError(t, err)
	assert.NotEmpty(t, removed)
}

func TestExportDownloadExpiredLink(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewExportService(gradedWorkspace(t), files, storage.NewSignedURLSigner("secret", time.Nanosecond), ExportConfig{APIPrefix: "/api/v1"}, nil, nil)

	link, err := svc.Store(context.Background(), dto.ExportRequest{Kind: dto.ExportKindClassReport, Format: "csv"})
	require.NoError(t, err)
	_, _, err = svc.Download(strings.TrimPrefix(link.URL, "/api/v1/exports/download/"))
	assert.ErrorIs(t, err, appErrors.ErrExportLinkExpired)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Period_1A", safeName(" Period 1A! ", "class"))
	assert.Equal(t, "class", safeName("???", "class"))
}
