// Package tabular reads uploaded CSV, TSV and XLSX files into raw tables.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

// ErrMalformedUpload is returned for files that cannot be read as a table.
var ErrMalformedUpload = port.ErrMalformedUpload

// Parser implements port.UploadParser.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser { return &Parser{} }

// Extensions lists the accepted file extensions.
func Extensions() []string { return []string{".csv", ".tsv", ".xlsx", ".xlsm"} }

// Parse reads the file named filename from r. The format is chosen by
// extension. The first non-blank row is the header, later blank rows are
// skipped, and every data row is padded or truncated to the header width.
func (p *Parser) Parse(filename string, r io.Reader) (model.RawTable, error) {
	var (
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		records, err = readDelimited(r, ',')
	case ".tsv":
		records, err = readDelimited(r, '\t')
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(r)
	default:
		return model.RawTable{}, fmt.Errorf("%w: unsupported file type %q", ErrMalformedUpload, ext)
	}
	if err != nil {
		return model.RawTable{}, err
	}
	return build(records)
}

func readDelimited(r io.Reader, comma rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedUpload, err)
	}
	return records, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrMalformedUpload, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedUpload)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrMalformedUpload, sheets[0], err)
	}
	return rows, nil
}

func build(records [][]string) (model.RawTable, error) {
	records = dropBlank(records)
	if len(records) == 0 {
		return model.RawTable{}, fmt.Errorf("%w: empty file", ErrMalformedUpload)
	}
	header := buildHeader(records[0])

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, rec)
		rows = append(rows, row)
	}
	return model.RawTable{Header: header, Rows: rows}, nil
}

// buildHeader names empty header cells "Unnamed: <i>" and suffixes repeats
// with ".1", ".2" and so on, so every column keeps a distinct key. A
// generated name that collides with a later or earlier header is suffixed
// again, so "a,a,a.1" becomes "a,a.1,a.1.1".
func buildHeader(cells []string) []string {
	if len(cells) > 0 {
		cells[0] = strings.TrimPrefix(cells[0], "\ufeff")
	}
	header := make([]string, len(cells))
	counts := make(map[string]int, len(cells))
	for i, c := range cells {
		name := c
		if strings.TrimSpace(c) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		n := counts[name]
		for n > 0 {
			counts[name] = n + 1
			name = name + "." + strconv.Itoa(n)
			n = counts[name]
		}
		counts[name] = n + 1
		header[i] = name
	}
	return header
}

func dropBlank(records [][]string) [][]string {
	out := records[:0]
	for _, rec := range records {
		for _, c := range rec {
			if strings.TrimSpace(c) != "" {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}
