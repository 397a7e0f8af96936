package model

// RawTable is a parsed upload: one header row and zero or more data rows.
// Rows are padded or truncated to the header width by the parser.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t RawTable) Len() int { return len(t.Rows) }

// Row returns row i keyed by header.
func (t RawTable) Row(i int) RawRow {
	row := make(RawRow, len(t.Header))
	for j, h := range t.Header {
		if j < len(t.Rows[i]) {
			row[h] = t.Rows[i][j]
		}
	}
	return row
}

// DecoratedDataset is the upload's original columns followed by the scoring
// outputs for each row, ready for export.
type DecoratedDataset struct {
	Header []string
	Rows   [][]string
}
