package workhistories

import (
	"context"
	"fmt"
	"io"

	"github.com/angelmondragon/agridiary/internal/records"
	"github.com/angelmondragon/agridiary/pkg/db/models"
	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
	"github.com/xuri/excelize/v2"
)

const (
	ExportSheet       = "作業履歴"
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeader = []any{"日付", "開始時刻", "終了時刻", "圃場", "作物", "作業内容"}

// ExportFilename names the workbook for a download.
func ExportFilename() string { return "work_histories.xlsx" }

// ExportXLSX writes every work history matching req to w as a workbook, in
// the same order as the list page.
func (s *Service) ExportXLSX(ctx context.Context, caller records.Caller, req pagination.Request, w io.Writer) error {
	items, err := s.Export(ctx, caller, req)
	if err != nil {
		return err
	}
	book, err := buildWorkbook(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build work history workbook")
	}
	defer book.Close()
	if _, err := book.WriteTo(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write work history workbook")
	}
	return nil
}

func buildWorkbook(items []models.WorkHistory) (*excelize.File, error) {
	book := excelize.NewFile()
	if err := book.SetSheetName("Sheet1", ExportSheet); err != nil {
		return nil, err
	}
	headerStyle, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9EAD3"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := book.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	if err := book.SetCellStyle(ExportSheet, "A1", "F1", headerStyle); err != nil {
		return nil, err
	}

	for i, item := range items {
		row := []any{
			item.Date.Format(records.DateLayout),
			records.FormatClock(item.StartTime),
			records.FormatClock(item.EndTime),
			nameOf(item.Field),
			cropName(item.Crop),
			item.Content,
		}
		if err := book.SetSheetRow(ExportSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}
	if err := book.SetColWidth(ExportSheet, "F", "F", 60); err != nil {
		return nil, err
	}
	return book, nil
}

func nameOf(f *models.Field) string {
	if f == nil {
		return ""
	}
	return f.Name
}

func cropName(c *models.Crop) string {
	if c == nil {
		return ""
	}
	return c.Name
}
