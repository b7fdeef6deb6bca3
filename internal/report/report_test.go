package report_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"taxdesk/internal/domain"
	"taxdesk/internal/report"
)

func sampleTable() *report.Table {
	return &report.Table{
		Title:       "Document Review Report",
		GeneratedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Summary:     []report.Field{{Label: "Total Documents", Value: "2"}},
		Columns:     []string{"User", "File", "Amount"},
		Rows: [][]string{
			{"Ayesha Khan", "ntn.pdf", "-1500"},
			{"=HYPERLINK(\"x\")", "@cmd", "+SUM(A1)"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.ReportFormat
		wantErr bool
	}{
		{"", domain.ReportFormatPDF, false},
		{"PDF", domain.ReportFormatPDF, false},
		{" xlsx ", domain.ReportFormatXLSX, false},
		{"csv", domain.ReportFormatCSV, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		got, err := report.ParseFormat(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "tax_filings_report_2025-03-01.xlsx",
		report.BuildFilename("tax filings / report", domain.ReportFormatXLSX, now))
	assert.Equal(t, "a_b", report.SanitizeFilename("__a!!b__"))
	assert.Len(t, report.SanitizeFilename(string(bytes.Repeat([]byte("x"), 150))), 100)
}

func TestRender_CSVNeutralizesFormulas(t *testing.T) {
	out, err := report.Render(domain.ReportFormatCSV, sampleTable())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, report.BOM))

	r := csv.NewReader(bytes.NewReader(out[len(report.BOM):]))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	last := records[len(records)-1]
	assert.Equal(t, []string{`'=HYPERLINK("x")`, "'@cmd", "'+SUM(A1)"}, last)
	// negative numbers are data, not formulas
	assert.Equal(t, "-1500", records[len(records)-2][2])
	assert.Equal(t, "Document Review Report", records[0][0])
}

func TestRender_XLSX(t *testing.T) {
	out, err := report.Render(domain.ReportFormatXLSX, sampleTable())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Document Review Report", title)

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	assert.Equal(t, []string{"User", "File", "Amount"}, rows[4])
	assert.Equal(t, "Ayesha Khan", rows[5][0])
}

func TestRender_PDF(t *testing.T) {
	out, err := report.Render(domain.ReportFormatPDF, sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRender_RejectsRaggedRows(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows = append(tbl.Rows, []string{"only one"})

	_, err := report.Render(domain.ReportFormatCSV, tbl)
	assert.Error(t, err)
}

func TestFormatTime(t *testing.T) {
	assert.Empty(t, report.FormatTime(nil))
	ts := time.Date(2025, 3, 1, 14, 5, 0, 0, time.FixedZone("PKT", 5*3600))
	assert.Equal(t, "2025-03-01 09:05", report.FormatTime(&ts))
}
