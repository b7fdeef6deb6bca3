// Package report renders tabular admin reports as PDF, XLSX or CSV.
// Every renderer builds the whole file in memory so a failure is reported
// before any response byte is written.
package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"taxdesk/internal/domain"
)

// Field is one labelled summary value.
type Field struct {
	Label string
	Value string
}

// Table is the renderer-neutral content of a report.
type Table struct {
	Title       string
	GeneratedAt time.Time
	Summary     []Field
	Columns     []string
	Rows        [][]string
}

// Render produces the report bytes in the requested format.
func Render(format domain.ReportFormat, t *Table) ([]byte, error) {
	if t.GeneratedAt.IsZero() {
		t.GeneratedAt = time.Now().UTC()
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("report: row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
	}

	switch format {
	case domain.ReportFormatPDF:
		return renderPDF(t)
	case domain.ReportFormatXLSX:
		return renderXLSX(t)
	case domain.ReportFormatCSV:
		return renderCSV(t)
	default:
		return nil, domain.ErrUnsupportedFormat
	}
}

// ParseFormat maps a query value to a format; empty means PDF.
func ParseFormat(s string) (domain.ReportFormat, error) {
	f := domain.ReportFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return domain.ReportFormatPDF, nil
	}
	if _, ok := domain.ReportContentTypes[f]; !ok {
		return "", domain.ErrUnsupportedFormat
	}
	return f, nil
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{format}.
func BuildFilename(name string, format domain.ReportFormat, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), format)
}

// FormatTime renders an optional timestamp for a report cell.
func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}
