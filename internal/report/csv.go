package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// BOM is the UTF-8 byte order mark Excel on Windows needs to detect UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

func renderCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(BOM)
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{t.Title})
	_ = w.Write([]string{"Generated At", t.GeneratedAt.Format("2006-01-02 15:04:05 MST")})
	for _, f := range t.Summary {
		_ = w.Write([]string{f.Label, f.Value})
	}
	if len(t.Columns) > 0 {
		_ = w.Write(nil)
		_ = w.Write(t.Columns)
		for _, row := range t.Rows {
			_ = w.Write(sanitizeRow(row))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sanitizeRow neutralizes cells a spreadsheet would evaluate as formulas.
func sanitizeRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		if isFormulaLike(cell) {
			cell = "'" + cell
		}
		out[i] = cell
	}
	return out
}

func isFormulaLike(cell string) bool {
	if cell == "" {
		return false
	}
	switch cell[0] {
	case '=', '@':
		return true
	case '+', '-':
		_, err := strconv.ParseFloat(cell, 64)
		return err != nil
	}
	return false
}
