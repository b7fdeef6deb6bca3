package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin    = 10.0
	pdfRowHeight = 6.0
	pdfFontSize  = 8.0
)

func renderPDF(t *Table) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle(t.Title, true)
	pdf.AliasNbPages("")
	// Core fonts are cp1252; names with other characters degrade instead of failing.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfMargin)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 9, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+t.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, f := range t.Summary {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(60, 5, tr(f.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5, tr(f.Value), "", 1, "L", false, 0, "")
	}

	if len(t.Columns) > 0 {
		pdf.Ln(4)
		pageW, pageH := pdf.GetPageSize()
		colW := (pageW - 2*pdfMargin) / float64(len(t.Columns))

		drawHeader := func() {
			pdf.SetFont("Helvetica", "B", pdfFontSize)
			pdf.SetFillColor(4, 120, 87)
			pdf.SetTextColor(255, 255, 255)
			for _, c := range t.Columns {
				pdf.CellFormat(colW, pdfRowHeight, fit(pdf, tr(c), colW), "1", 0, "L", true, 0, "")
			}
			pdf.Ln(-1)
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Helvetica", "", pdfFontSize)
		}

		drawHeader()
		for i, row := range t.Rows {
			if pdf.GetY()+pdfRowHeight > pageH-pdfMargin-5 {
				pdf.AddPage()
				drawHeader()
			}
			fill := i%2 == 1
			pdf.SetFillColor(240, 244, 242)
			for _, cell := range row {
				pdf.CellFormat(colW, pdfRowHeight, fit(pdf, tr(cell), colW), "1", 0, "L", fill, 0, "")
			}
			pdf.Ln(-1)
		}
		if len(t.Rows) == 0 {
			pdf.CellFormat(0, pdfRowHeight, "No records match the selected filters.", "1", 1, "C", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

// fit truncates s with an ellipsis so it fits a cell of width w.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	limit := w - 2*pdf.GetCellMargin()
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
