package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

func renderXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"047857"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	row := 1
	if err := setRow(f, row, []interface{}{t.Title}); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(sheetName, "A1", "A1", bold)
	row++
	if err := setRow(f, row, []interface{}{"Generated At", t.GeneratedAt.Format("2006-01-02 15:04:05 MST")}); err != nil {
		return nil, err
	}
	row++
	for _, s := range t.Summary {
		if err := setRow(f, row, []interface{}{s.Label, s.Value}); err != nil {
			return nil, err
		}
		row++
	}

	if len(t.Columns) > 0 {
		row++
		if err := setRow(f, row, toCells(t.Columns)); err != nil {
			return nil, err
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(t.Columns), row)
		_ = f.SetCellStyle(sheetName, first, last, header)
		_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: row, TopLeftCell: fmt.Sprintf("A%d", row+1), ActivePane: "bottomLeft"})
		row++
		for _, r := range t.Rows {
			if err := setRow(f, row, toCells(r)); err != nil {
				return nil, err
			}
			row++
		}
		lastCol, _ := excelize.ColumnNumberToName(len(t.Columns))
		_ = f.SetColWidth(sheetName, "A", lastCol, 22)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
