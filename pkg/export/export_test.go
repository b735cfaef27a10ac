package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() *Table {
	return &Table{
		Title:   "Complaints",
		Headers: []string{"Complaint ID", "Status", "Description"},
		Rows: [][]string{
			{"KSC0001", "REGISTERED", "Broken streetlight, near the park"},
			{"KSC0002", "RESOLVED", "Garbage not collected for a week and the bins are overflowing onto the road"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "CSV", sample()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Broken streetlight, near the park", records[1][2])
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatExcel, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Complaints", "A3")
	require.NoError(t, err)
	assert.Equal(t, "KSC0002", v)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPDF, sample()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestUnknownFormat(t *testing.T) {
	_, _, err := ContentType("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.ErrorIs(t, Write(&bytes.Buffer{}, "docx", sample()), ErrUnknownFormat)
}

func TestCSVEscapesFormulas(t *testing.T) {
	tbl := &Table{
		Headers: []string{"Complaint ID", "Description"},
		Rows: [][]string{
			{"KSC0003", `=HYPERLINK("http://evil.example","click")`},
			{"KSC0004", "+91 98765 43210"},
			{"KSC0005", "@SUM(A1:A2)"},
			{"KSC0006", "Drain blocked - again"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, `'=HYPERLINK("http://evil.example","click")`, records[1][1])
	assert.Equal(t, "'+91 98765 43210", records[2][1])
	assert.Equal(t, "'@SUM(A1:A2)", records[3][1])
	assert.Equal(t, "Drain blocked - again", records[4][1])
}

func TestPDFTextIsTranslated(t *testing.T) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	assert.Equal(t, "Caf\xe9 \x80 5", fit(pdf, tr("Café € 5"), 100))

	long := fit(pdf, tr(strings.Repeat("é", 200)), 30)
	assert.True(t, strings.HasSuffix(long, "..."))
	assert.NotContains(t, long, "\xc3", "no stray UTF-8 lead bytes")

	tbl := sample()
	tbl.Rows = append(tbl.Rows, []string{"KSC0007", "REOPENED", "Road near Sree Narayana temple is flooded, ₹ damage"})
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, tbl))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
