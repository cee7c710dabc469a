package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/fleetcore/driver-completion/internal/domain"
)

const (
	SheetName              = "Driver Completion"
	FilePrefix             = "Driver_Completion_Report-"
	SubjectPrefix          = "Driver Completion Report - "
	SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	fileDateLayout  = "01_02_06"
	timestampLayout = "01/02/2006, 15:04:05"
	defaultSheet    = "Sheet1"
)

var Headers = []string{
	"Terminal Name",
	"Driver NO",
	"Last Name",
	"First Name",
	"Uncompleted",
	"Completed",
	"% Completed",
}

// Renderer turns an aggregated report into the spreadsheet artifact and the
// notification text.
type Renderer struct {
	outputDir string
	body      *template.Template
	log       *zap.Logger
}

func NewRenderer(outputDir string, log *zap.Logger) *Renderer {
	if outputDir == "" {
		outputDir = "."
	}
	return &Renderer{
		outputDir: outputDir,
		body:      template.Must(template.New("report").Funcs(templateFuncs).Parse(reportBodyTemplate)),
		log:       log,
	}
}

func (r *Renderer) Render(report *domain.Report, now time.Time) (*domain.RenderedReport, error) {
	content, err := Workbook(report)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}

	fileName := FileName(now)
	path := filepath.Join(r.outputDir, fileName)
	if err := writeFile(path, content); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}

	body, err := r.Body(report, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRenderFailure, err)
	}

	r.log.Info("Rendered report",
		zap.String("file", path),
		zap.Int("rows", len(report.ActiveRows())),
		zap.Int("bytes", len(content)),
	)

	return &domain.RenderedReport{
		Subject: Subject(now),
		Body:    body,
		Artifact: domain.Artifact{
			FileName:    fileName,
			Path:        path,
			ContentType: SpreadsheetContentType,
			Content:     content,
		},
		Report: report,
	}, nil
}

// Body renders the plain-text notification.
func (r *Renderer) Body(report *domain.Report, now time.Time) (string, error) {
	var sb strings.Builder
	err := r.body.Execute(&sb, bodyData{
		Timestamp: now.Format(timestampLayout),
		Window:    report.Window.String(),
		Terminals: report.SortedTerminals(),
		Total:     report.Total,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render notification body: %w", err)
	}
	return sb.String(), nil
}

// Workbook builds the xlsx bytes: a header row followed by one row per driver
// with in-window orders, without gaps.
func Workbook(report *domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "G", 16); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	for i, row := range report.ActiveRows() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			row.TerminalName,
			row.DriverNo,
			row.LastName,
			row.FirstName,
			row.Uncompleted,
			row.Completed,
			FormatPercent(row.Percent()),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row for driver %s: %w", row.DriverNo, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func FileName(now time.Time) string {
	return FilePrefix + now.Format(fileDateLayout) + ".xlsx"
}

func Subject(now time.Time) string {
	return SubjectPrefix + now.Format(fileDateLayout)
}

// FormatPercent renders a percentage like "66.67 %".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f %%", p)
}

// writeFile replaces path through a temporary file in the same directory so a
// concurrent reader never sees a partial workbook.
func writeFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set workbook mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move workbook into place: %w", err)
	}
	return nil
}
