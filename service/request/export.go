package request

import (
	"bytes"
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
)

var exportHeader = []string{
	"User Index No", "User Surname", "User First Name", "Book Title",
	"Request Date", "Approve Date", "Out Date", "In Date", "Due Date",
	"Fine", "Status", "Created At", "Updated At",
}

// Export renders the requests in the given status as an xlsx workbook.
func (s *service) Export(ctx context.Context, callerID int64, status model.RequestStatus) ([]byte, error) {
	rows, err := s.ByStatus(ctx, callerID, status)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Requests"
	f.SetSheetName(f.GetSheetName(0), sheet)
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, err
	}

	for i, d := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			d.IndexNo, d.Surname, d.FirstName, d.BookTitle,
			fmtTime(&d.RequestDate), fmtTime(d.ApproveDate), fmtTime(d.OutDate),
			fmtTime(d.InDate), fmtTime(d.InPrevDate),
			fine(d.Fine), string(d.Status),
			fmtTime(&d.CreatedAt), fmtTime(&d.UpdatedAt),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fmtTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fine(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}
