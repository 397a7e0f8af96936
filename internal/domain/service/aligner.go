package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

// Aligner turns raw rows into feature vectors in the classifier's order.
type Aligner struct {
	schema  *FeatureSchema
	encoder *Encoder
}

// NewAligner returns an aligner over schema and encoder.
func NewAligner(schema *FeatureSchema, encoder *Encoder) *Aligner {
	return &Aligner{schema: schema, encoder: encoder}
}

// AlignedTable is the vectorized form of a raw table.
type AlignedTable struct {
	Vectors [][]float64
	// Records holds each row's typed view, keyed by canonical field.
	Records []model.ApplicantRecord
	// Rows holds each row rekeyed by canonical field.
	Rows []model.RawRow
	// RowNotes holds the data-quality notes of each row, by row index.
	RowNotes [][]string
	// Missing lists the expected features absent from the header.
	Missing []string
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// canonicalFeatures resolves the classifier's feature names through the schema.
func (a *Aligner) canonicalFeatures(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i], _ = a.schema.Resolve(n)
	}
	return out
}

func (a *Aligner) categorical(feature string) bool {
	if a.encoder.Vocabulary().Has(feature) {
		return true
	}
	k, ok := a.schema.Kind(feature)
	return ok && k == KindCategorical
}

// value converts one present cell to its feature value.
func (a *Aligner) value(feature, cell string) (float64, string) {
	if a.categorical(feature) {
		code, note := a.encoder.Encode(feature, cell)
		return float64(code), note
	}
	v, ok := parseNumber(cell)
	if ok {
		return v, ""
	}
	if _, declared := a.schema.Kind(feature); !declared {
		// Undeclared features that are not numbers go through the vocabulary.
		code, note := a.encoder.Encode(feature, cell)
		return float64(code), note
	}
	if strings.TrimSpace(cell) == "" {
		return 0, fmt.Sprintf("%s: empty value set to 0", feature)
	}
	return 0, fmt.Sprintf("%s: non-numeric value %q set to 0", feature, strings.TrimSpace(cell))
}

// Align builds one vector for row. The output has exactly one entry per
// name in featureNames, in that order; absent features are 0 and noted,
// extra columns are ignored.
func (a *Aligner) Align(row model.RawRow, featureNames []string) ([]float64, []string) {
	canon := a.schema.NormalizeRow(row)
	vec := make([]float64, len(featureNames))
	var notes []string
	for i, f := range a.canonicalFeatures(featureNames) {
		cell, ok := canon[f]
		if !ok {
			notes = append(notes, fmt.Sprintf("%s: missing, set to 0", f))
			continue
		}
		v, note := a.value(f, cell)
		vec[i] = v
		if note != "" {
			notes = append(notes, note)
		}
	}
	return vec, notes
}

// AlignTable vectorizes a whole table. Absent columns are reported once in
// Missing rather than on every row.
func (a *Aligner) AlignTable(t model.RawTable, featureNames []string) AlignedTable {
	cols := a.schema.ResolveColumns(t.Header)
	features := a.canonicalFeatures(featureNames)

	out := AlignedTable{
		Vectors:  make([][]float64, t.Len()),
		Records:  make([]model.ApplicantRecord, t.Len()),
		Rows:     make([]model.RawRow, t.Len()),
		RowNotes: make([][]string, t.Len()),
	}
	for _, f := range features {
		if _, ok := cols[f]; !ok {
			out.Missing = append(out.Missing, f)
		}
	}

	for r, cells := range t.Rows {
		canon := make(model.RawRow, len(cols))
		for name, c := range cols {
			if c < len(cells) {
				canon[name] = cells[c]
			}
		}
		vec := make([]float64, len(features))
		for i, f := range features {
			cell, ok := canon[f]
			if !ok {
				continue
			}
			v, note := a.value(f, cell)
			vec[i] = v
			if note != "" {
				out.RowNotes[r] = append(out.RowNotes[r], note)
			}
		}
		out.Vectors[r] = vec
		out.Rows[r] = canon
		out.Records[r] = a.schema.RecordFromRow(canon)
	}
	return out
}
