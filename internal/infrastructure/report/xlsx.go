package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

const (
	sheetData    = "Data"
	sheetSummary = "Summary"
	sheetCharts  = "Charts"
)

// XLSXSink writes a workbook with the rows, the summary facts and one
// native column chart per report chart.
type XLSXSink struct{}

func (XLSXSink) Format() string { return "xlsx" }
func (XLSXSink) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXSink) Render(w io.Writer, r model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetData); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeData(f, r, bold); err != nil {
		return err
	}
	if err := writeSummary(f, r, bold); err != nil {
		return err
	}
	if len(r.Charts) > 0 {
		if err := writeCharts(f, r.Charts); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeData(f *excelize.File, r model.Report, bold int) error {
	header := make([]any, len(r.Header))
	for i, h := range r.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetData, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(sheetData, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	for i, row := range r.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetData, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

// cellValue stores numeric text as a number so spreadsheets can sum it.
func cellValue(v string) any {
	if n, err := strconv.ParseFloat(v, 64); err == nil && strconv.FormatFloat(n, 'f', -1, 64) == v {
		return n
	}
	return v
}

func writeSummary(f *excelize.File, r model.Report, bold int) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	rows := [][]any{{r.Title}, {r.Subtitle}, {"Generated", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")}, {}}
	for _, fact := range r.Facts {
		rows = append(rows, []any{fact.Label, fact.Value})
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "A1", bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	return f.SetColWidth(sheetSummary, "A", "A", 32)
}

// writeCharts lays each chart's data out as a block on the Charts sheet and
// anchors a column chart beside it.
func writeCharts(f *excelize.File, charts []model.Chart) error {
	if _, err := f.NewSheet(sheetCharts); err != nil {
		return fmt.Errorf("create charts sheet: %w", err)
	}
	top := 1
	for _, c := range charts {
		labels := make([]any, 0, len(c.Labels)+1)
		labels = append(labels, c.Title)
		for _, l := range c.Labels {
			labels = append(labels, l)
		}
		if err := setRow(f, top, labels); err != nil {
			return err
		}

		var series []excelize.ChartSeries
		firstCat, _ := excelize.CoordinatesToCellName(2, top, true)
		lastCat, _ := excelize.CoordinatesToCellName(len(c.Labels)+1, top, true)
		for i, s := range c.Series {
			row := top + 1 + i
			values := make([]any, 0, len(s.Values)+1)
			values = append(values, s.Name)
			for _, v := range s.Values {
				values = append(values, v)
			}
			if err := setRow(f, row, values); err != nil {
				return err
			}
			name, _ := excelize.CoordinatesToCellName(1, row, true)
			first, _ := excelize.CoordinatesToCellName(2, row, true)
			last, _ := excelize.CoordinatesToCellName(len(s.Values)+1, row, true)
			series = append(series, excelize.ChartSeries{
				Name:       sheetCharts + "!" + name,
				Categories: sheetCharts + "!" + firstCat + ":" + lastCat,
				Values:     sheetCharts + "!" + first + ":" + last,
			})
		}

		anchor, _ := excelize.CoordinatesToCellName(len(c.Labels)+3, top)
		if len(series) > 0 && len(c.Labels) > 0 {
			err := f.AddChart(sheetCharts, anchor, &excelize.Chart{
				Type:   excelize.Col,
				Series: series,
				Title:  []excelize.RichTextRun{{Text: c.Title}},
			})
			if err != nil {
				return fmt.Errorf("add chart %q: %w", c.Title, err)
			}
		}
		top += 16
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetCharts, cell, &values); err != nil {
		return fmt.Errorf("write chart data: %w", err)
	}
	return nil
}
