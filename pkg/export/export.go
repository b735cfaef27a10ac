// Package export renders tabular complaint reports as CSV, Excel or PDF.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

var ErrUnknownFormat = errors.New("export: unknown format")

type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// ContentType returns the MIME type and file extension for format.
func ContentType(format string) (string, string, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "text/csv", ".csv", nil
	case FormatExcel, "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx", nil
	case FormatPDF:
		return "application/pdf", ".pdf", nil
	}
	return "", "", ErrUnknownFormat
}

func Write(w io.Writer, format string, t *Table) error {
	switch strings.ToLower(format) {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatExcel, "xlsx":
		return WriteExcel(w, t)
	case FormatPDF:
		return WritePDF(w, t)
	}
	return ErrUnknownFormat
}

// WriteCSV escapes cells that a spreadsheet would evaluate as formulas.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(escapeRow(t.Headers)); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(escapeRow(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func escapeRow(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = escapeFormula(v)
	}
	return out
}

// escapeFormula prefixes a quote to values starting with a formula trigger.
func escapeFormula(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func WriteExcel(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Complaints"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, h := range t.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
			return err
		}
	}
	for r, row := range t.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.ColumnNumberToName(len(t.Headers))
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// WritePDF lays the table out on landscape A4 pages, repeating the header
// row on each page.
func WritePDF(w io.Writer, t *Table) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	// core fonts are cp1252; runes outside it render as '.'
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := 0.0
	if n := len(t.Headers); n > 0 {
		colW = (pageW - left - right) / float64(n)
	}
	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range t.Headers {
			pdf.CellFormat(colW, 7, fit(pdf, tr(h), colW), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d records", len(t.Rows)), "", 1, "L", false, 0, "")
	header()

	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range t.Rows {
		if pdf.GetY()+6 > pageH-bottom {
			pdf.AddPage()
			header()
		}
		for _, v := range row {
			pdf.CellFormat(colW, 6, fit(pdf, tr(v), colW), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// fit truncates the single-byte encoded s so it renders within width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	s = strings.Join(strings.Fields(s), " ")
	if pdf.GetStringWidth(s) <= width-2 {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width-2 {
		s = s[:len(s)-1]
	}
	return s + "..."
}
