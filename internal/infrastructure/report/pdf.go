package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

// seriesColors cycles through chart series.
var seriesColors = [][3]int{
	{46, 125, 50},
	{249, 168, 37},
	{198, 40, 40},
	{21, 101, 192},
}

// PDFSink lays out the facts, a bar chart per report chart, and the table.
type PDFSink struct {
	// MaxRows caps the table; zero prints every row.
	MaxRows int
}

func (PDFSink) Format() string      { return "pdf" }
func (PDFSink) ContentType() string { return "application/pdf" }

func (s PDFSink) Render(w io.Writer, r model.Report) error {
	orientation := "P"
	if len(r.Header) > 8 {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("creditrisk", true)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, tr(r.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if r.Subtitle != "" {
		pdf.CellFormat(0, 6, tr(r.Subtitle), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Generated "+r.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	drawFacts(pdf, tr, r.Facts)
	for _, c := range r.Charts {
		drawChart(pdf, tr, c)
	}
	if len(r.Header) > 0 {
		rows := r.Rows
		if s.MaxRows > 0 && len(rows) > s.MaxRows {
			rows = rows[:s.MaxRows]
		}
		drawTable(pdf, tr, r.Header, rows)
		if len(rows) < len(r.Rows) {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.CellFormat(0, 5, fmt.Sprintf("%d of %d rows shown", len(rows), len(r.Rows)), "", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawFacts(pdf *fpdf.Fpdf, tr func(string) string, facts []model.ReportFact) {
	if len(facts) == 0 {
		return
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, f := range facts {
		fill := i%2 == 0
		pdf.CellFormat(70, 6, tr(f.Label), "", 0, "L", fill, 0, "")
		pdf.CellFormat(60, 6, tr(f.Value), "", 1, "R", fill, 0, "")
	}
	pdf.Ln(4)
}

// drawChart draws a grouped bar chart scaled to the largest value.
func drawChart(pdf *fpdf.Fpdf, tr func(string) string, c model.Chart) {
	const (
		chartH = 50.0
		labelH = 5.0
	)
	if len(c.Labels) == 0 || len(c.Series) == 0 {
		return
	}
	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	if pdf.GetY()+chartH+3*labelH+8 > pageH-bottom {
		pdf.AddPage()
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(c.Title), "", 1, "L", false, 0, "")

	maxV := 0.0
	for _, s := range c.Series {
		for _, v := range s.Values {
			maxV = math.Max(maxV, v)
		}
	}
	if maxV == 0 {
		maxV = 1
	}

	width := pageW - left - right
	top := pdf.GetY()
	base := top + chartH
	group := width / float64(len(c.Labels))
	bar := group * 0.8 / float64(len(c.Series))

	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(left, base, left+width, base)
	pdf.SetFont("Helvetica", "", 7)
	for i, label := range c.Labels {
		x := left + float64(i)*group + group*0.1
		for j, s := range c.Series {
			if i >= len(s.Values) {
				continue
			}
			v := s.Values[i]
			h := chartH * v / maxV
			col := seriesColors[j%len(seriesColors)]
			pdf.SetFillColor(col[0], col[1], col[2])
			pdf.Rect(x+float64(j)*bar, base-h, bar, h, "F")
			pdf.SetXY(x+float64(j)*bar, base-h-4)
			pdf.CellFormat(bar, 4, formatValue(v), "", 0, "C", false, 0, "")
		}
		pdf.SetXY(left+float64(i)*group, base+1)
		pdf.CellFormat(group, labelH, tr(label), "", 0, "C", false, 0, "")
	}

	// Legend.
	pdf.SetXY(left, base+labelH+2)
	for j, s := range c.Series {
		col := seriesColors[j%len(seriesColors)]
		pdf.SetFillColor(col[0], col[1], col[2])
		x, y := pdf.GetXY()
		pdf.Rect(x, y+1, 3, 3, "F")
		pdf.SetX(x + 4)
		pdf.CellFormat(pdf.GetStringWidth(tr(s.Name))+6, labelH, tr(s.Name), "", 0, "L", false, 0, "")
	}
	pdf.Ln(labelH + 4)
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, header []string, rows [][]string) {
	const rowH = 5.0
	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(header))
	fontSize := 8.0
	if len(header) > 12 {
		fontSize = 6
	}

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.SetFillColor(220, 220, 220)
		for _, h := range header {
			pdf.CellFormat(colW, rowH, fit(pdf, tr(h), colW), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(rowH)
		pdf.SetFont("Helvetica", "", fontSize)
	}

	if pdf.GetY()+2*rowH > pageH-bottom {
		pdf.AddPage()
	}
	drawHeader()
	for _, row := range rows {
		if pdf.GetY()+rowH > pageH-bottom {
			pdf.AddPage()
			drawHeader()
		}
		for j := range header {
			var v string
			if j < len(row) {
				v = row[j]
			}
			pdf.CellFormat(colW, rowH, fit(pdf, tr(v), colW), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(rowH)
	}
}

// fit truncates s so that it fits in a cell of width w. s is already in
// the single-byte font encoding, so it is cut by bytes.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	const pad = 2.0
	if pdf.GetStringWidth(s) <= w-pad {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"..") > w-pad {
		s = s[:len(s)-1]
	}
	return s + ".."
}
