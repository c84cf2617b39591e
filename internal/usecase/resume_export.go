package usecase

import (
	"bytes"
	"context"
	"fmt"
	"go-resume-backend/internal/access"
	"go-resume-backend/internal/domain"
	"go-resume-backend/pkg/apperror"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Resumes"

var exportHeaders = []string{"ID", "NICKNAME", "TITLE", "CONTENT", "APPLY STATUS", "CREATED AT", "UPDATED AT"}

// ExportResumes renders the recruiter's listing as an xlsx workbook
func (uc *resumeUsecase) ExportResumes(ctx context.Context, actor domain.Actor, query domain.ResumeQuery) ([]byte, string, error) {
	if err := guard(actor, "", access.RecruiterOnly); err != nil {
		return nil, "", apperror.Forbidden(msgRecruiterOnly)
	}

	views, err := uc.List(ctx, actor, query)
	if err != nil {
		return nil, "", err
	}

	data, err := buildResumeWorkbook(views)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}
	filename := fmt.Sprintf("resumes_%s.xlsx", time.Now().Format("20060102_150405"))
	return data, filename, nil
}

func buildResumeWorkbook(views []domain.ResumeView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheetName, cell, h)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create header style")
	}
	endCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(exportSheetName, "A1", endCell, headerStyle)

	for rowIdx, v := range views {
		row := []any{
			v.ID,
			v.Nickname,
			v.Title,
			v.Content,
			v.ApplyStatus,
			v.CreatedAt.Format(time.RFC3339),
			v.UpdatedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "write row %d", rowIdx+2)
		}
	}

	for i := range exportHeaders {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheetName, colName, colName, 20)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}
